// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package wal

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

const (
	DefaultReplayInterval = 5 * time.Second
	DefaultMaxAttempts    = 20
	replayBatch           = 100

	// Entries never attempted are still in flight in DurablePublisher
	// unless they are older than this, which means the process died.
	inFlightGrace = 30 * time.Second
)

// ReplayConfig tunes the Replayer. Zero values take the defaults.
type ReplayConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// Replayer republishes pending entries. It runs once at start, which
// recovers entries left by a previous process, then every Interval.
type Replayer struct {
	wal    *BadgerWAL
	next   Publisher
	config ReplayConfig

	// now is swapped in tests.
	now func() time.Time
}

func NewReplayer(w *BadgerWAL, next Publisher, cfg ReplayConfig) *Replayer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReplayInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Replayer{wal: w, next: next, config: cfg, now: time.Now}
}

// Serve implements suture.Service.
func (r *Replayer) Serve(ctx context.Context) error {
	log := logging.WithComponent("wal-replayer")

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		r.ReplayOnce(ctx, log)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Replayer) String() string {
	return "wal-replayer"
}

// ReplayOnce publishes one batch and returns how many entries went out.
// It stops at the first failure; the bus is most likely still down.
func (r *Replayer) ReplayOnce(ctx context.Context, log zerolog.Logger) int {
	entries, err := r.wal.Pending(ctx, replayBatch)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read pending events")
		return 0
	}

	published := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if e.Attempts == 0 && r.now().Sub(e.CreatedAt) < inFlightGrace {
			continue
		}
		pubCtx := ctx
		if e.CorrelationID != "" {
			pubCtx = logging.ContextWithCorrelationID(ctx, e.CorrelationID)
		}

		if err := r.next.Publish(pubCtx, e.Topic, json.RawMessage(e.Payload)); err != nil {
			r.fail(ctx, log, e, err)
			break
		}
		if err := r.wal.Confirm(ctx, e.ID); err != nil {
			log.Warn().Err(err).Str("entry_id", e.ID).Msg("Failed to confirm replayed event")
		}
		metrics.EventsReplayedTotal.WithLabelValues("published").Inc()
		published++
	}

	if published > 0 {
		log.Info().Int("count", published).Msg("Replayed pending events")
	}
	return published
}

func (r *Replayer) fail(ctx context.Context, log zerolog.Logger, e *Entry, cause error) {
	attempts, err := r.wal.RecordFailure(ctx, e.ID, cause)
	if err != nil {
		log.Error().Err(err).Str("entry_id", e.ID).Msg("Failed to record replay failure")
		return
	}
	if attempts < r.config.MaxAttempts {
		metrics.EventsReplayedTotal.WithLabelValues("failed").Inc()
		log.Debug().Err(cause).Str("entry_id", e.ID).Int("attempts", attempts).Msg("Replay failed")
		return
	}

	if err := r.wal.Delete(ctx, e.ID); err != nil {
		log.Error().Err(err).Str("entry_id", e.ID).Msg("Failed to drop event")
		return
	}
	metrics.EventsReplayedTotal.WithLabelValues("dropped").Inc()
	log.Error().
		Err(cause).
		Str("entry_id", e.ID).
		Str("topic", e.Topic).
		Int("attempts", attempts).
		Msg("Giving up on event")
}
