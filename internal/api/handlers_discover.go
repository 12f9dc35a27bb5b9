// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/mix/internal/events"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
	"github.com/tomtom215/mix/internal/models"
	"github.com/tomtom215/mix/internal/store"
)

// Discover lists profiles the caller has not swiped yet, newest first.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := currentUser(r)
	if !requireOnboarded(rw, user) {
		return
	}

	limit, err := queryInt(r, "limit", store.DefaultLimit)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	users, err := h.store.DiscoverUsers(r.Context(), user.ID, store.ClampLimit(limit))
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	now := h.now()
	profiles := make([]models.PublicProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Public(now))
	}
	rw.Success(profiles)
}

// Swipe records a decision. A positive swipe answered by an earlier positive
// swipe from the target creates a match, which both sides are told about.
func (h *Handler) Swipe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := currentUser(r)
	if !requireOnboarded(rw, user) {
		return
	}

	var req models.SwipeRequest
	if !bindJSON(w, r, &req) {
		return
	}
	if req.TargetUserID == user.ID {
		rw.BadRequest("You cannot swipe on yourself")
		return
	}

	target, err := h.store.GetUser(r.Context(), req.TargetUserID)
	if err != nil {
		rw.StoreError(err, "User not found")
		return
	}
	if !target.Onboarded || target.Status != models.UserStatusActive {
		rw.NotFound("User not found")
		return
	}

	now := h.now()
	match, err := h.store.RecordSwipe(r.Context(), &models.Swipe{
		SwiperID:  user.ID,
		TargetID:  target.ID,
		Action:    req.Action,
		CreatedAt: now,
	})
	if errors.Is(err, store.ErrConflict) {
		rw.Conflict("You already swiped on this user")
		return
	}
	if err != nil {
		rw.StoreError(err, "User not found")
		return
	}
	metrics.SwipesTotal.WithLabelValues(string(req.Action)).Inc()

	if match == nil {
		rw.Success(models.SwipeResult{Matched: false})
		return
	}

	metrics.MatchesCreatedTotal.Inc()
	mine := matchView(match, target, now)
	theirs := matchView(match, user, now)
	h.publish(r.Context(), events.TopicMatchCreated, events.MatchCreated{
		MatchID:   match.ID,
		CreatedAt: match.CreatedAt,
		Views: map[string]models.MatchView{
			user.ID:   mine,
			target.ID: theirs,
		},
	})
	logging.Ctx(r.Context()).Info().Str("match_id", match.ID).Msg("Match created")

	rw.Success(models.SwipeResult{Matched: true, Match: &mine})
}

// matchView is m as seen by the participant who is not other.
func matchView(m *models.Match, other *models.User, now time.Time) models.MatchView {
	return models.MatchView{
		ID:        m.ID,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		User:      other.Public(now),
	}
}
