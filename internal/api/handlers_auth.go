// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/mix/internal/auth"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
	"github.com/tomtom215/mix/internal/models"
	"github.com/tomtom215/mix/internal/store"
)

// AuthUser returns the signed-in user.
func (h *Handler) AuthUser(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(currentUser(r))
}

// AuthConfig tells the SPA which sign-in buttons to show.
func (h *Handler) AuthConfig(w http.ResponseWriter, r *http.Request) {
	resp := models.AuthConfigResponse{PhoneEnabled: true}
	if h.google != nil && h.google.Enabled() {
		resp.GoogleClientID = h.google.ClientID()
	}
	NewResponseWriter(w, r).Success(resp)
}

// Logout ends the session. It succeeds without one so the SPA can always
// call it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to delete session")
	}
	NewResponseWriter(w, r).Success(map[string]bool{"loggedOut": true})
}

// PhoneLogin signs in with a phone number, creating the account on first
// use. There is no verification code step.
func (h *Handler) PhoneLogin(w http.ResponseWriter, r *http.Request) {
	var req models.PhoneLoginRequest
	if !bindJSON(w, r, &req) {
		return
	}

	user, created, err := h.findOrCreate(r,
		func() (*models.User, error) { return h.store.GetUserByPhone(r.Context(), req.PhoneNumber) },
		func(u *models.User) { u.PhoneNumber = req.PhoneNumber },
	)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("phone", logging.RedactPhone(req.PhoneNumber)).
		Bool("new_user", created).
		Msg("Phone sign-in")
	h.startSession(w, r, user, auth.ProviderPhone, created)
}

// GoogleLogin verifies a Google Identity Services credential and signs in
// the account bound to its subject.
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.google == nil || !h.google.Enabled() {
		rw.Error(http.StatusNotFound, ErrCodeFeatureDisabled, "Google sign-in is not enabled")
		return
	}

	var req models.GoogleLoginRequest
	if !bindJSON(w, r, &req) {
		return
	}

	identity, err := h.google.Verify(r.Context(), req.Credential)
	switch {
	case errors.Is(err, auth.ErrVerifierUnavailable):
		metrics.AuthFailuresTotal.WithLabelValues("google_unavailable").Inc()
		rw.ServiceUnavailable("Google sign-in is temporarily unavailable")
		return
	case err != nil:
		metrics.AuthFailuresTotal.WithLabelValues("google_invalid").Inc()
		rw.Unauthorized("Invalid Google credential")
		return
	}

	user, created, err := h.findOrCreate(r,
		func() (*models.User, error) { return h.store.GetUserByGoogleSub(r.Context(), identity.Subject) },
		func(u *models.User) {
			u.GoogleSub = identity.Subject
			u.Name = identity.Name
			if identity.EmailVerified {
				u.Email = identity.Email
			}
			if identity.Picture != "" {
				u.Photos = []string{identity.Picture}
			}
		},
	)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("email", logging.RedactEmail(identity.Email)).
		Bool("new_user", created).
		Msg("Google sign-in")
	h.startSession(w, r, user, auth.ProviderGoogle, created)
}

// findOrCreate looks the account up and creates it when missing. A
// concurrent sign-in that wins the insert is picked up by a second lookup.
func (h *Handler) findOrCreate(r *http.Request, find func() (*models.User, error), fill func(*models.User)) (*models.User, bool, error) {
	user, err := find()
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	now := h.now()
	user = &models.User{
		Photos:    []string{},
		Interests: []string{},
		Status:    models.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fill(user)

	err = h.store.CreateUser(r.Context(), user)
	if errors.Is(err, store.ErrConflict) {
		user, err = find()
		return user, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *models.User, provider string, created bool) {
	rw := NewResponseWriter(w, r)
	if user.Status == models.UserStatusBanned {
		metrics.AuthFailuresTotal.WithLabelValues("banned").Inc()
		rw.Error(http.StatusForbidden, ErrCodeAccountBanned, "This account has been suspended")
		return
	}

	if _, err := h.sessions.Start(r.Context(), w, user.ID, provider); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to start session")
		rw.InternalError("Could not sign in")
		return
	}
	metrics.SessionsCreatedTotal.WithLabelValues(provider).Inc()

	if created {
		rw.Created(user)
		return
	}
	rw.Success(user)
}
