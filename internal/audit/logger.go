// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

// Config holds configuration for the audit logger.
type Config struct {
	// BufferSize is the number of events Log can queue ahead of Serve.
	BufferSize int

	// Retention is how long events are kept. Zero keeps them until the
	// store evicts them.
	Retention time.Duration

	// CleanupInterval is how often expired events are pruned.
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		BufferSize:      1000,
		Retention:       90 * 24 * time.Hour,
		CleanupInterval: time.Hour,
	}
}

// Logger queues events and writes them to a Store from Serve.
type Logger struct {
	config Config
	store  Store
	events chan *Event

	// now is swapped in tests.
	now func() time.Time
}

func NewLogger(store Store, config Config) *Logger {
	def := DefaultConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = def.BufferSize
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	return &Logger{
		config: config,
		store:  store,
		events: make(chan *Event, config.BufferSize),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Log queues an event, filling in ID, Timestamp and Severity when unset.
// It never blocks.
func (l *Logger) Log(event *Event) {
	if l == nil || event == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	if event.Severity == "" {
		event.Severity = defaultSeverity(event)
	}

	select {
	case l.events <- event:
	default:
		metrics.AuditDroppedTotal.Inc()
		logging.Warn().Str("event_id", event.ID).Str("type", string(event.Type)).Msg("Audit buffer full, dropping event")
	}
}

func defaultSeverity(e *Event) Severity {
	switch {
	case e.Type == EventTypeUserDeleted:
		return SeverityCritical
	case e.Outcome == OutcomeFailure, e.Type == EventTypeUserBanned:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Serve writes queued events until ctx is done, then drains the buffer.
// It implements suture.Service.
func (l *Logger) Serve(ctx context.Context) error {
	log := logging.WithComponent("audit")

	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-l.events:
					l.write(log, event)
				default:
					return ctx.Err()
				}
			}
		case event := <-l.events:
			l.write(log, event)
		case <-ticker.C:
			l.prune(ctx, log)
		}
	}
}

func (l *Logger) String() string {
	return "audit-logger"
}

func (l *Logger) write(log zerolog.Logger, event *Event) {
	// Detached so the drain at shutdown still completes.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save audit event")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues(string(event.Type), string(event.Outcome)).Inc()

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	log.Info().RawJSON("event", data).Msg("Audit event")
}

func (l *Logger) prune(ctx context.Context, log zerolog.Logger) {
	if l.config.Retention <= 0 {
		return
	}
	n, err := l.store.Delete(ctx, l.now().Add(-l.config.Retention))
	if err != nil {
		log.Error().Err(err).Msg("Audit cleanup failed")
		return
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("Pruned expired audit events")
	}
}

// Query reads the trail. A nil Logger returns an empty page.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, int, error) {
	if l == nil {
		return []Event{}, 0, nil
	}
	return l.store.Query(ctx, filter)
}

// MetadataJSON encodes event details, falling back to an empty object.
func MetadataJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
