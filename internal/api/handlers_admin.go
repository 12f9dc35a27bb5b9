// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/mix/internal/audit"
	"github.com/tomtom215/mix/internal/auth"
	"github.com/tomtom215/mix/internal/events"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
	"github.com/tomtom215/mix/internal/models"
)

// pagedResult is the data of an offset-paginated admin listing.
type pagedResult struct {
	Items interface{} `json:"items"`
	Page  models.Page `json:"page"`
}

// AdminLogin exchanges the back-office credentials for a bearer token.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.admin == nil {
		rw.Error(http.StatusNotFound, ErrCodeFeatureDisabled, "Admin access is not configured")
		return
	}

	var req models.AdminLoginRequest
	if !bindJSON(w, r, &req) {
		return
	}

	role, err := h.admin.Authenticate(req.Username, req.Password)
	if err != nil {
		metrics.AuthFailuresTotal.WithLabelValues("admin_login").Inc()
		logging.Ctx(r.Context()).Warn().Msg("Admin login failed")
		h.recordAudit(r, audit.EventTypeAdminLogin, audit.OutcomeFailure, audit.Actor{Name: req.Username}, nil, nil)
		rw.Unauthorized("Invalid username or password")
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(req.Username, role)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to sign admin token")
		rw.InternalError("Could not sign in")
		return
	}

	logging.Ctx(r.Context()).Info().Str("username", req.Username).Str("role", role).Msg("Admin signed in")
	h.recordAudit(r, audit.EventTypeAdminLogin, audit.OutcomeSuccess, audit.Actor{Name: req.Username, Role: role}, nil, nil)
	rw.Success(models.AdminLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  req.Username,
		Role:      role,
	})
}

// AdminStats backs the dashboard.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if h.wsHub != nil {
		stats.LiveSockets = h.wsHub.GetClientCount()
	}
	rw.Success(stats)
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, offset, err := pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	users, total, err := h.store.ListUsers(r.Context(), limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	rw.Success(pagedResult{Items: users, Page: models.Page{Limit: limit, Offset: offset, Total: total}})
}

func (h *Handler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user, err := h.store.GetUser(r.Context(), urlParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "User not found")
		return
	}
	rw.Success(user)
}

// AdminUpdateUser bans or reinstates a user. Banning ends every session and
// closes the user's sockets.
func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req models.UserStatusUpdate
	if !bindJSON(w, r, &req) {
		return
	}

	user, err := h.store.GetUser(r.Context(), urlParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "User not found")
		return
	}

	previous := user.Status
	user.Status = req.Status
	user.UpdatedAt = h.now()
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		rw.StoreError(err, "User not found")
		return
	}

	if req.Status == models.UserStatusBanned && previous != models.UserStatusBanned {
		h.evict(r.Context(), user.ID, "banned")
	}

	admin := auth.AdminFromContext(r.Context())
	logging.Ctx(r.Context()).Info().
		Str("target_user_id", user.ID).
		Str("status", string(req.Status)).
		Str("admin", adminName(admin)).
		Msg("User status changed")
	if previous != req.Status {
		eventType := audit.EventTypeUserReinstated
		if req.Status == models.UserStatusBanned {
			eventType = audit.EventTypeUserBanned
		}
		h.recordAudit(r, eventType, audit.OutcomeSuccess, adminActor(admin),
			&audit.Target{Type: "user", ID: user.ID},
			map[string]interface{}{"from": previous, "to": req.Status})
	}
	rw.Success(user)
}

// AdminDeleteUser removes a user together with their swipes, matches and
// messages.
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := urlParam(r, "id")
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		rw.StoreError(err, "User not found")
		return
	}
	h.evict(r.Context(), id, "deleted")

	admin := auth.AdminFromContext(r.Context())
	logging.Ctx(r.Context()).Info().
		Str("target_user_id", id).
		Str("admin", adminName(admin)).
		Msg("User deleted")
	h.recordAudit(r, audit.EventTypeUserDeleted, audit.OutcomeSuccess, adminActor(admin), &audit.Target{Type: "user", ID: id}, nil)
	rw.NoContent()
}

// evict ends the user's sessions and asks the realtime side to close their
// sockets.
func (h *Handler) evict(ctx context.Context, userID, reason string) {
	n, err := h.sessions.Store().DeleteByUserID(ctx, userID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("target_user_id", userID).Msg("Failed to end sessions")
	} else if n > 0 {
		logging.Ctx(ctx).Debug().Int("sessions", n).Str("target_user_id", userID).Msg("Sessions ended")
	}
	h.publish(ctx, events.TopicUserBanned, events.UserBanned{UserID: userID, Reason: reason})
}

func adminName(c *auth.Claims) string {
	if c == nil {
		return ""
	}
	return c.Username
}

func adminActor(c *auth.Claims) audit.Actor {
	if c == nil {
		return audit.Actor{}
	}
	return audit.Actor{Name: c.Username, Role: c.Role}
}

// recordAudit adds a back-office action to the audit trail.
func (h *Handler) recordAudit(r *http.Request, eventType audit.EventType, outcome audit.Outcome, actor audit.Actor, target *audit.Target, metadata map[string]interface{}) {
	event := &audit.Event{
		Type:      eventType,
		Outcome:   outcome,
		Actor:     actor,
		Target:    target,
		Source:    audit.SourceFromRequest(r),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
	if metadata != nil {
		event.Metadata = audit.MetadataJSON(metadata)
	}
	h.audit.Log(event)
}

func (h *Handler) AdminListMatches(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, offset, err := pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	matches, total, err := h.store.ListMatches(r.Context(), limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	rw.Success(pagedResult{Items: matches, Page: models.Page{Limit: limit, Offset: offset, Total: total}})
}

// AdminListReports filters by ?status= when given.
func (h *Handler) AdminListReports(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	status := models.ReportStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		rw.BadRequest("status must be one of: open resolved dismissed")
		return
	}

	reports, err := h.store.ListReports(r.Context(), status)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if reports == nil {
		reports = []*models.Report{}
	}
	rw.Success(reports)
}

// AdminUpdateReport resolves or dismisses a report.
func (h *Handler) AdminUpdateReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req models.ReportUpdate
	if !bindJSON(w, r, &req) {
		return
	}

	report, err := h.store.GetReport(r.Context(), urlParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "Report not found")
		return
	}
	if report.Status != models.ReportStatusOpen {
		rw.Conflict("Report already closed")
		return
	}

	now := h.now()
	report.Status = req.Status
	report.ResolvedAt = &now
	admin := auth.AdminFromContext(r.Context())
	report.ResolvedBy = adminName(admin)
	if err := h.store.UpdateReport(r.Context(), report); err != nil {
		rw.StoreError(err, "Report not found")
		return
	}

	eventType := audit.EventTypeReportResolved
	if req.Status == models.ReportStatusDismissed {
		eventType = audit.EventTypeReportDismissed
	}
	h.recordAudit(r, eventType, audit.OutcomeSuccess, adminActor(admin),
		&audit.Target{Type: "report", ID: report.ID},
		map[string]interface{}{"reportedUserId": report.ReportedUserID})
	rw.Success(report)
}

// AdminAuditLog lists the audit trail, newest first. Filters: type (may
// repeat), actor, target, since (RFC 3339).
func (h *Handler) AdminAuditLog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, offset, err := pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	since, err := queryTime(r, "since")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	q := r.URL.Query()
	filter := audit.QueryFilter{
		Actor:    q.Get("actor"),
		TargetID: q.Get("target"),
		Since:    since,
		Limit:    limit,
		Offset:   offset,
	}
	for _, t := range q["type"] {
		filter.Types = append(filter.Types, audit.EventType(t))
	}

	entries, total, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		rw.InternalError("Could not read the audit trail")
		return
	}
	rw.Success(pagedResult{Items: entries, Page: models.Page{Limit: limit, Offset: offset, Total: total}})
}
