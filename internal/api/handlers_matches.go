// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/mix/internal/events"
	"github.com/tomtom215/mix/internal/metrics"
	"github.com/tomtom215/mix/internal/models"
	"github.com/tomtom215/mix/internal/store"
	"github.com/tomtom215/mix/internal/validation"
)

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// loadMatch returns the match named in the URL when the caller takes part
// in it. Matches of other users are reported as missing.
func (h *Handler) loadMatch(rw *ResponseWriter, r *http.Request) (*models.Match, bool) {
	match, err := h.store.GetMatch(r.Context(), urlParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "Match not found")
		return nil, false
	}
	if !match.Has(currentUser(r).ID) {
		rw.NotFound("Match not found")
		return nil, false
	}
	return match, true
}

// ListMatches returns the caller's active matches with the other side's
// profile and the latest message.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := currentUser(r)

	matches, err := h.store.ListMatchesForUser(r.Context(), user.ID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	now := h.now()
	views := make([]models.MatchView, 0, len(matches))
	for _, m := range matches {
		other, err := h.store.GetUser(r.Context(), m.Other(user.ID))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			rw.DatabaseError(err)
			return
		}

		view := matchView(m, other, now)
		last, err := h.store.LastMessage(r.Context(), m.ID)
		switch {
		case err == nil:
			view.LastMessage = last
		case !errors.Is(err, store.ErrNotFound):
			rw.DatabaseError(err)
			return
		}
		views = append(views, view)
	}
	rw.Success(views)
}

// Unmatch ends a match for both participants.
func (h *Handler) Unmatch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	match, ok := h.loadMatch(rw, r)
	if !ok {
		return
	}
	if !match.Active() {
		rw.Error(http.StatusConflict, ErrCodeMatchInactive, "Match already ended")
		return
	}

	if err := h.store.Unmatch(r.Context(), match.ID, h.now()); err != nil {
		rw.StoreError(err, "Match not found")
		return
	}

	h.publish(r.Context(), events.TopicMatchRemoved, events.MatchRemoved{
		MatchID:     match.ID,
		RecipientID: match.Other(currentUser(r).ID),
	})
	rw.NoContent()
}

// ListMessages pages backwards through a conversation with ?before= and
// returns each page in ascending time order.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	match, ok := h.loadMatch(rw, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", store.DefaultLimit)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	before, err := queryTime(r, "before")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	msgs, err := h.store.ListMessages(r.Context(), match.ID, before, store.ClampLimit(limit))
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	rw.Success(msgs)
}

// SendMessage stores a message and notifies the other participant.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	match, ok := h.loadMatch(rw, r)
	if !ok {
		return
	}
	if !match.Active() {
		rw.Error(http.StatusConflict, ErrCodeMatchInactive, "This match has ended")
		return
	}

	var req models.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	sender := currentUser(r)
	msg := &models.Message{
		MatchID:   match.ID,
		SenderID:  sender.ID,
		Content:   req.Content,
		CreatedAt: h.now(),
	}
	if err := h.store.CreateMessage(r.Context(), msg); err != nil {
		// The match can end between loadMatch and the insert.
		if errors.Is(err, store.ErrConflict) {
			rw.Error(http.StatusConflict, ErrCodeMatchInactive, "This match has ended")
			return
		}
		rw.StoreError(err, "Match not found")
		return
	}
	metrics.MessagesSentTotal.Inc()

	h.publish(r.Context(), events.TopicMessageCreated, events.MessageCreated{
		Message:     *msg,
		RecipientID: match.Other(sender.ID),
	})
	rw.Created(msg)
}

// CreateReport files a complaint about another user for moderators.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req models.ReportRequest
	if !bindJSON(w, r, &req) {
		return
	}

	reporter := currentUser(r)
	if req.ReportedUserID == reporter.ID {
		rw.BadRequest("You cannot report yourself")
		return
	}

	report := &models.Report{
		ReporterID:     reporter.ID,
		ReportedUserID: req.ReportedUserID,
		Reason:         strings.TrimSpace(req.Reason),
		Status:         models.ReportStatusOpen,
		CreatedAt:      h.now(),
	}
	if err := h.store.CreateReport(r.Context(), report); err != nil {
		rw.StoreError(err, "User not found")
		return
	}
	metrics.ReportsTotal.Inc()
	rw.Created(report)
}
