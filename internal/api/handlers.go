// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/mix/internal/audit"
	"github.com/tomtom215/mix/internal/auth"
	"github.com/tomtom215/mix/internal/config"
	"github.com/tomtom215/mix/internal/events"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/models"
	"github.com/tomtom215/mix/internal/store"
	ws "github.com/tomtom215/mix/internal/websocket"
)

// Dependencies are the collaborators a Handler is built from. Admin may be
// nil when no back-office account is configured; Google may be nil when
// Google sign-in is off. A nil Audit discards the trail.
type Dependencies struct {
	Config    *config.Config
	Store     store.Store
	Sessions  *auth.SessionManager
	Google    *auth.GoogleVerifier
	Admin     *auth.AdminAuthenticator
	JWT       *auth.JWTManager
	Publisher events.Publisher
	Hub       *ws.Hub
	Audit     *audit.Logger
}

// Handler serves every API route.
type Handler struct {
	config    *config.Config
	store     store.Store
	sessions  *auth.SessionManager
	google    *auth.GoogleVerifier
	admin     *auth.AdminAuthenticator
	jwt       *auth.JWTManager
	publisher events.Publisher
	wsHub     *ws.Hub
	audit     *audit.Logger
	startTime time.Time

	// now is swapped in tests.
	now func() time.Time
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		config:    deps.Config,
		store:     deps.Store,
		sessions:  deps.Sessions,
		google:    deps.Google,
		admin:     deps.Admin,
		jwt:       deps.JWT,
		publisher: deps.Publisher,
		wsHub:     deps.Hub,
		audit:     deps.Audit,
		startTime: time.Now(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type contextKey string

const userContextKey contextKey = "mix.user"

func contextWithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// currentUser returns the user loaded by RequireUser.
func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(userContextKey).(*models.User)
	return u
}

// RequireUser loads the session's user. Requests without a session get 401;
// a session whose user is gone is ended; banned users get 403.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := NewResponseWriter(w, r)
		userID := auth.UserIDFromContext(r.Context())
		if userID == "" {
			rw.Unauthorized("Authentication required")
			return
		}

		user, err := h.store.GetUser(r.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			if endErr := h.sessions.End(w, r); endErr != nil {
				logging.Ctx(r.Context()).Warn().Err(endErr).Msg("Failed to end orphaned session")
			}
			rw.Unauthorized("Authentication required")
			return
		}
		if err != nil {
			rw.DatabaseError(err)
			return
		}
		if user.Status == models.UserStatusBanned {
			rw.Error(http.StatusForbidden, ErrCodeAccountBanned, "This account has been suspended")
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
	})
}

// requireOnboarded writes 403 PROFILE_INCOMPLETE for users who have not
// finished onboarding.
func requireOnboarded(rw *ResponseWriter, u *models.User) bool {
	if !u.Onboarded {
		rw.Error(http.StatusForbidden, ErrCodeProfileIncomplete, "Complete your profile first")
		return false
	}
	return true
}

// publish sends an event after the write it describes has been stored.
// Failures are logged; the stored state stays authoritative.
func (h *Handler) publish(ctx context.Context, topic string, payload interface{}) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, topic, payload); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}
