// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package realtime

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

// Drop reasons recorded in mix_realtime_dropped_total.
const (
	DropMalformed    = "malformed"
	DropDisconnected = "disconnected"
)

var errMissingType = errors.New("frame has no type")

// Envelope is one frame on the channel: {"type": ..., "data": ..., ...}.
// Top-level fields other than type and data are kept in Extra so they
// survive a decode/encode round trip.
type Envelope struct {
	Type  string
	Data  json.RawMessage
	Extra map[string]json.RawMessage
}

// MarshalJSON writes type, data when set, and every Extra field. Extra
// cannot override type or data.
func (e Envelope) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(e.Extra)+2)
	for k, v := range e.Extra {
		fields[k] = v
	}
	typ, err := json.Marshal(e.Type)
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	if e.Data != nil {
		fields["data"] = e.Data
	} else {
		delete(fields, "data")
	}
	return json.Marshal(fields)
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("frame is not an object")
	}

	*e = Envelope{}
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &e.Type); err != nil {
			return fmt.Errorf("type: %w", err)
		}
		delete(fields, "type")
	}
	if raw, ok := fields["data"]; ok {
		e.Data = raw
		delete(fields, "data")
	}
	if len(fields) > 0 {
		e.Extra = fields
	}
	return nil
}

// DataInto decodes Data into v. A missing or null data leaves v untouched.
func (e Envelope) DataInto(v interface{}) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// Decode parses an inbound frame. ok is false when the frame was dropped.
func Decode(frame []byte) (env Envelope, ok bool) {
	if err := json.Unmarshal(frame, &env); err != nil {
		dropMalformed(frame, err)
		return Envelope{}, false
	}
	if env.Type == "" {
		dropMalformed(frame, errMissingType)
		return Envelope{}, false
	}
	return env, true
}

// Encode serializes an outbound frame.
func Encode(env Envelope) ([]byte, error) {
	if env.Type == "" {
		return nil, errMissingType
	}
	return json.Marshal(env)
}

// dropMalformed discards a frame that is not a typed JSON object. The owner
// never sees it.
func dropMalformed(frame []byte, err error) {
	metrics.RealtimeDroppedTotal.WithLabelValues(DropMalformed).Inc()
	logging.Debug().
		Str("component", "realtime").
		Err(err).
		Int("bytes", len(frame)).
		Msg("dropping malformed frame")
}

// dropWhileDisconnected discards an outbound frame because no connection is
// open. Nothing is queued for later.
func dropWhileDisconnected(env Envelope) {
	metrics.RealtimeDroppedTotal.WithLabelValues(DropDisconnected).Inc()
	logging.Debug().
		Str("component", "realtime").
		Str("type", env.Type).
		Msg("not connected, dropping outbound frame")
}
