// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/mix/internal/models"
)

// UpdateProfile applies the onboarding wizard's final submission.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if !bindJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Bio = strings.TrimSpace(req.Bio)

	user := currentUser(r)
	req.Apply(user, h.now())
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		NewResponseWriter(w, r).StoreError(err, "User not found")
		return
	}
	NewResponseWriter(w, r).Success(user)
}

// GetProfile returns another user's public profile. Banned and
// not-yet-onboarded users are not visible.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user, err := h.store.GetUser(r.Context(), urlParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "Profile not found")
		return
	}
	if !user.Onboarded || user.Status != models.UserStatusActive {
		rw.NotFound("Profile not found")
		return
	}
	rw.Success(user.Public(h.now()))
}
