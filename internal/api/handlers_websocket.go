// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/mix/internal/auth"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/models"
	ws "github.com/tomtom215/mix/internal/websocket"
)

// typingEvent is both the inbound typing frame's data and the relayed one.
type typingEvent struct {
	MatchID string `json:"matchId"`
	UserID  string `json:"userId,omitempty"`
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin allows the page's own host and the configured CORS
// origins. Browsers always send Origin, so a missing one is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	if h.config != nil {
		for _, allowed := range h.config.Security.CORSOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue escapes control characters so header values cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (h *Handler) clientOptions() ws.ClientOptions {
	if h.config == nil {
		return ws.DefaultClientOptions()
	}
	rt := h.config.Realtime
	return ws.ClientOptions{
		WriteWait:         rt.WriteWait,
		PongWait:          rt.PongWait,
		MaxMessageSize:    rt.MaxMessageSize,
		MessagesPerSecond: rt.MessagesPerSecond,
		Burst:             rt.MessageBurst,
	}
}

// WebSocket upgrades /ws. A valid session cookie binds the socket to its
// user so matches and messages can be pushed to it; anonymous sockets only
// get ping/pong.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if userID != "" {
		user, err := h.store.GetUser(r.Context(), userID)
		switch {
		case err != nil:
			userID = ""
		case user.Status == models.UserStatusBanned:
			NewResponseWriter(w, r).Error(http.StatusForbidden, ErrCodeAccountBanned, "This account has been suspended")
			return
		}
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.wsHub.Attach(conn, userID, h.clientOptions())
}

// RegisterRealtime installs the handler for client frames other than ping.
func (h *Handler) RegisterRealtime() {
	if h.wsHub != nil {
		h.wsHub.SetInboundHandler(h.handleInbound)
	}
}

func (h *Handler) handleInbound(ctx context.Context, userID string, msg ws.InboundMessage) {
	if userID == "" {
		return
	}
	switch msg.Type {
	case ws.MessageTypeTyping:
		h.relayTyping(ctx, userID, msg.Data)
	default:
		logging.Ctx(ctx).Debug().Str("type", msg.Type).Msg("Ignoring realtime frame")
	}
}

// relayTyping forwards a typing indicator to the other participant of an
// active match the sender belongs to.
func (h *Handler) relayTyping(ctx context.Context, userID string, data json.RawMessage) {
	var ev typingEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.MatchID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()
	match, err := h.store.GetMatch(ctx, ev.MatchID)
	if err != nil || !match.Has(userID) || !match.Active() {
		return
	}

	h.wsHub.SendToUser(match.Other(userID), ws.MessageTypeTyping, typingEvent{
		MatchID: match.ID,
		UserID:  userID,
	})
}
