// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/mix/internal/logging"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionManager ties the store to the signed cookie.
type SessionManager struct {
	store  SessionStore
	cookie *CookieSigner
	ttl    time.Duration

	// Sliding extends the expiry on every authenticated request.
	Sliding bool
}

// NewSessionManager creates a manager with sliding expiry enabled.
func NewSessionManager(store SessionStore, cookie *CookieSigner, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{store: store, cookie: cookie, ttl: ttl, Sliding: true}
}

// Store exposes the underlying store for the cleanup loop and bans.
func (m *SessionManager) Store() SessionStore {
	return m.store
}

// Start creates a session for userID and sets the cookie.
func (m *SessionManager) Start(ctx context.Context, w http.ResponseWriter, userID, provider string) (*Session, error) {
	session, err := NewSession(userID, provider, m.ttl)
	if err != nil {
		return nil, err
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	m.cookie.SetCookie(w, session.ID)
	return session, nil
}

// End deletes the request's session, if any, and clears the cookie.
func (m *SessionManager) End(w http.ResponseWriter, r *http.Request) error {
	defer m.cookie.ClearCookie(w)
	id := m.cookie.SessionID(r)
	if id == "" {
		return nil
	}
	if err := m.store.Delete(r.Context(), id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Lookup resolves the session carried by r without touching it.
func (m *SessionManager) Lookup(r *http.Request) (*Session, bool) {
	id := m.cookie.SessionID(r)
	if id == "" {
		return nil, false
	}
	session, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Session lookup error")
		}
		return nil, false
	}
	return session, true
}

// Authenticate attaches the session to the request context when the cookie
// is valid. Requests without one continue anonymously.
func (m *SessionManager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := m.Lookup(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if m.Sliding {
			expiresAt := time.Now().Add(m.ttl)
			if err := m.store.Touch(r.Context(), session.ID, expiresAt); err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to touch session")
			} else {
				session.ExpiresAt = expiresAt
			}
		}

		ctx := ContextWithSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession rejects requests without a session using unauthorized.
// It must run after Authenticate.
func RequireSession(unauthorized http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionFromContext(r.Context()) == nil {
				unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithSession stores the session and tags the logging context with
// its user.
func ContextWithSession(ctx context.Context, session *Session) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, session)
	return logging.ContextWithUserID(ctx, session.UserID)
}

// SessionFromContext returns the session attached by Authenticate, or nil.
func SessionFromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(sessionContextKey).(*Session)
	return session
}

// UserIDFromContext returns the signed-in user id, or "".
func UserIDFromContext(ctx context.Context) string {
	if session := SessionFromContext(ctx); session != nil {
		return session.UserID
	}
	return ""
}
