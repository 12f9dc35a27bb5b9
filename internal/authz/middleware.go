// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package authz

import (
	"net/http"

	"github.com/tomtom215/mix/internal/auth"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

// Middleware enforces the policy for admin requests. It must run after
// auth.JWTManager.RequireAdmin.
type Middleware struct {
	enforcer  *Enforcer
	forbidden http.HandlerFunc
	failure   http.HandlerFunc
}

// NewMiddleware takes the handlers that write 403 and 500 responses.
func NewMiddleware(enforcer *Enforcer, forbidden, failure http.HandlerFunc) *Middleware {
	return &Middleware{enforcer: enforcer, forbidden: forbidden, failure: failure}
}

// AuthorizeRequest checks the caller's role against the request path and
// method.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.AdminFromContext(r.Context())
		if claims == nil {
			metrics.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
			m.forbidden(w, r)
			return
		}

		allowed, err := m.enforcer.Enforce(claims.Role, r.URL.Path, r.Method)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
			m.failure(w, r)
			return
		}
		if !allowed {
			metrics.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
			logging.Ctx(r.Context()).Warn().
				Str("admin", claims.Username).
				Str("role", claims.Role).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg("Admin request denied")
			m.forbidden(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
