// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for a wrong admin username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminBcryptCost is the work factor used when ADMIN_PASSWORD is plain text.
const AdminBcryptCost = 12

// AdminAuthenticator checks the single configured back-office account.
type AdminAuthenticator struct {
	username     string
	passwordHash []byte
	role         string
}

// NewAdminAuthenticator accepts either a plain password, which is hashed
// here, or an existing bcrypt hash ($2a$, $2b$, $2y$).
func NewAdminAuthenticator(username, password, role string, cost int) (*AdminAuthenticator, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("admin username and password are required")
	}
	if role == "" {
		role = "admin"
	}

	var hash []byte
	if isBcryptHash(password) {
		if _, err := bcrypt.Cost([]byte(password)); err != nil {
			return nil, fmt.Errorf("invalid admin password hash: %w", err)
		}
		hash = []byte(password)
	} else {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	}

	return &AdminAuthenticator{username: username, passwordHash: hash, role: role}, nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

// Authenticate returns the account role on success.
func (a *AdminAuthenticator) Authenticate(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}
	return a.role, nil
}

// Username returns the configured account name.
func (a *AdminAuthenticator) Username() string {
	return a.username
}
