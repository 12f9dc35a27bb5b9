// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package wal

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

// Publisher is the event bus being protected.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// DurablePublisher writes every event to the WAL before handing it to the
// bus. A failed publish is left pending for the Replayer and reported as
// success, since the event is no longer lost.
type DurablePublisher struct {
	next Publisher
	wal  *BadgerWAL
}

func NewDurablePublisher(next Publisher, w *BadgerWAL) *DurablePublisher {
	return &DurablePublisher{next: next, wal: w}
}

func (p *DurablePublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	id, err := p.wal.Write(ctx, topic, data, logging.CorrelationIDFromContext(ctx))
	if err != nil {
		// Without the log the bus is all there is.
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("WAL write failed, publishing directly")
		return p.next.Publish(ctx, topic, json.RawMessage(data))
	}

	if err := p.next.Publish(ctx, topic, json.RawMessage(data)); err != nil {
		if _, ferr := p.wal.RecordFailure(ctx, id, err); ferr != nil {
			logging.Ctx(ctx).Error().Err(ferr).Str("entry_id", id).Msg("Failed to record publish failure")
		}
		metrics.EventsDeferredTotal.WithLabelValues(topic).Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Str("entry_id", id).Msg("Publish failed, event kept for replay")
		return nil
	}

	if err := p.wal.Confirm(ctx, id); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("entry_id", id).Msg("Failed to confirm WAL entry")
	}
	return nil
}
