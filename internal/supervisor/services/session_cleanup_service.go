// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package services

import (
	"context"
	"time"

	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

const defaultCleanupInterval = 5 * time.Minute

// ExpiredSessionSweeper is satisfied by every auth.SessionStore.
type ExpiredSessionSweeper interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// SessionCleanupService periodically removes expired sessions.
type SessionCleanupService struct {
	store    ExpiredSessionSweeper
	interval time.Duration
	name     string
}

// NewSessionCleanupService sweeps every interval; non-positive means 5m.
func NewSessionCleanupService(store ExpiredSessionSweeper, interval time.Duration) *SessionCleanupService {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	return &SessionCleanupService{
		store:    store,
		interval: interval,
		name:     "session-cleanup",
	}
}

// Serve implements suture.Service. A failed sweep is logged and retried on
// the next tick rather than restarting the service.
func (s *SessionCleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionCleanupService) sweep(ctx context.Context) {
	removed, err := s.store.CleanupExpired(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("session cleanup failed")
		return
	}
	if removed > 0 {
		metrics.SessionsExpiredTotal.Add(float64(removed))
		logging.Debug().Int("removed", removed).Msg("expired sessions removed")
	}
}

func (s *SessionCleanupService) String() string {
	return s.name
}
