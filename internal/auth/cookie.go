// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultCookieName is the session cookie the SPA expects.
const DefaultCookieName = "mix.session"

// ErrInvalidSignature is returned for cookie values that were not produced
// by this server's secret.
var ErrInvalidSignature = errors.New("invalid cookie signature")

// CookieConfig controls how the session cookie is written.
type CookieConfig struct {
	Name   string
	Secret []byte
	MaxAge time.Duration

	// Production switches to SameSite=None; Secure so the SPA can be served
	// from another origin over HTTPS.
	Production bool
}

// CookieSigner signs and verifies session ids and writes the cookie.
type CookieSigner struct {
	cfg CookieConfig
}

// NewCookieSigner returns a signer. An empty name falls back to mix.session.
func NewCookieSigner(cfg CookieConfig) (*CookieSigner, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	return &CookieSigner{cfg: cfg}, nil
}

// Name returns the cookie name.
func (c *CookieSigner) Name() string {
	return c.cfg.Name
}

// Sign returns "<id>.<mac>" where mac is the base64url HMAC-SHA256 of id.
func (c *CookieSigner) Sign(id string) string {
	return id + "." + c.mac(id)
}

// Verify returns the session id inside a signed value.
func (c *CookieSigner) Verify(value string) (string, error) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", ErrInvalidSignature
	}
	id, sig := value[:i], value[i+1:]
	if !hmac.Equal([]byte(sig), []byte(c.mac(id))) {
		return "", ErrInvalidSignature
	}
	return id, nil
}

func (c *CookieSigner) mac(id string) string {
	h := hmac.New(sha256.New, c.cfg.Secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// SessionID extracts and verifies the session id from r. Missing, unsigned
// and tampered cookies all yield "".
func (c *CookieSigner) SessionID(r *http.Request) string {
	cookie, err := r.Cookie(c.cfg.Name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	id, err := c.Verify(cookie.Value)
	if err != nil {
		return ""
	}
	return id
}

// SetCookie writes the signed session cookie.
func (c *CookieSigner) SetCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, c.cookie(c.Sign(sessionID), int(c.cfg.MaxAge.Seconds())))
}

// ClearCookie expires the session cookie in the browser.
func (c *CookieSigner) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

func (c *CookieSigner) cookie(value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     c.cfg.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if c.cfg.Production {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	}
	return cookie
}
