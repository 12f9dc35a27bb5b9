// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/models"
)

const readinessTimeout = 2 * time.Second

func (h *Handler) environment() string {
	if h.config == nil {
		return ""
	}
	return h.config.Server.Environment
}

// Health is the liveness check served at /health and /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:      "ok",
		Timestamp:   h.now(),
		Environment: h.environment(),
	})
}

// HealthReady reports 503 until the store answers and the socket hub runs.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := h.store.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness: store ping failed")
		checks["store"] = "unavailable"
		healthy = false
	} else {
		checks["store"] = "ok"
	}

	if h.wsHub != nil {
		select {
		case <-h.wsHub.Done():
			checks["websocket"] = "stopped"
			healthy = false
		default:
			checks["websocket"] = "ok"
		}
	}

	resp := models.ReadinessResponse{
		HealthResponse: models.HealthResponse{
			Status:      "ok",
			Timestamp:   h.now(),
			Environment: h.environment(),
		},
		Checks: checks,
	}
	status := http.StatusOK
	if !healthy {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
