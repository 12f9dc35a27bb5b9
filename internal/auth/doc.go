// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

/*
Package auth provides member sessions and back-office authentication.

Members sign in by phone number or with a Google credential. Either way the
server creates a Session and hands the browser a signed mix.session cookie:

	<session id>.<base64url HMAC-SHA256(session id, SESSION_SECRET)>

Cookies that are missing, unsigned or tampered are treated the same way, as
an anonymous request.

Key Components:

  - SessionStore: MemorySessionStore (default) and BadgerSessionStore
    (SESSION_STORE=badger), with sliding expiry and bulk revocation by user
  - CookieSigner: signing plus the cookie attributes (SameSite=None; Secure
    in production, Lax otherwise)
  - SessionManager: Start/End and the Authenticate middleware
  - JWTManager: HS256 bearer tokens for /api/admin
  - AdminAuthenticator: bcrypt check of the configured admin account
  - GoogleVerifier: ID token verification with zitadel/oidc against Google's
    JWKS, the key fetch guarded by a circuit breaker

Usage:

	signer, _ := auth.NewCookieSigner(auth.CookieConfig{Secret: []byte(secret)})
	sessions := auth.NewSessionManager(auth.NewMemorySessionStore(), signer, 24*time.Hour)

	r.Use(sessions.Authenticate)
	r.With(auth.RequireSession(unauthorized)).Get("/api/matches", h.Matches)
*/
package auth
