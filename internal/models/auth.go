// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package models

import "time"

// PhoneLoginRequest is the body of POST /api/auth/phone.
type PhoneLoginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,e164strict"`
}

// GoogleLoginRequest carries the ID token from Google Identity Services.
type GoogleLoginRequest struct {
	Credential string `json:"credential" validate:"required,min=20"`
}

// AuthConfigResponse tells the SPA which sign-in methods are available.
type AuthConfigResponse struct {
	GoogleClientID string `json:"googleClientId"`
	PhoneEnabled   bool   `json:"phoneEnabled"`
}

// AdminLoginRequest is the body of POST /api/admin/login.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// AdminLoginResponse carries the bearer token for the admin API.
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}
