// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/mix/internal/cache"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

// Realtime message types written to sockets. They match the constants in
// the websocket package, which this package does not import.
const (
	realtimeNewMatch      = "new_match"
	realtimeMatchRemoved  = "match_removed"
	realtimeNewMessage    = "new_message"
	realtimeAccountBanned = "account_banned"
)

// Notifier is the part of the websocket hub the forwarder drives.
type Notifier interface {
	SendToUser(userID, messageType string, data interface{})
	DisconnectUser(userID, messageType string, data interface{})
}

// Redelivered events are recognized by message UUID for this long.
const (
	dedupCapacity = 10000
	dedupWindow   = 10 * time.Minute
)

// Forwarder turns bus events into socket messages. NATS delivers at least
// once, so a message UUID seen within dedupWindow is acked without being
// forwarded again.
type Forwarder struct {
	notifier Notifier
	seen     *cache.LRU
}

func NewForwarder(n Notifier) *Forwarder {
	return &Forwarder{notifier: n, seen: cache.NewLRU(dedupCapacity, dedupWindow)}
}

// NewRouter builds a watermill router with one consumer handler per topic.
// Undecodable payloads are logged and acked; retrying cannot fix them.
func (f *Forwarder) NewRouter(sub message.Subscriber, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2,
			Logger:          logger,
		}.Middleware,
	)

	handlers := map[string]message.NoPublishHandlerFunc{
		TopicMatchCreated:   f.handleMatchCreated,
		TopicMatchRemoved:   f.handleMatchRemoved,
		TopicMessageCreated: f.handleMessageCreated,
		TopicUserBanned:     f.handleUserBanned,
	}
	for _, topic := range Topics() {
		router.AddConsumerHandler("forward_"+topic, topic, sub, f.instrument(topic, handlers[topic]))
	}
	return router, nil
}

func (f *Forwarder) instrument(topic string, h message.NoPublishHandlerFunc) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		if f.seen.Seen(msg.UUID) {
			metrics.EventsDuplicatesTotal.WithLabelValues(topic).Inc()
			logging.Debug().Str("topic", topic).Str("message_id", msg.UUID).Msg("skipping redelivered event")
			return nil
		}
		if err := h(msg); err != nil {
			logging.Warn().
				Err(err).
				Str("topic", topic).
				Str("message_id", msg.UUID).
				Str("correlation_id", middleware.MessageCorrelationID(msg)).
				Msg("dropping undecodable event")
			return nil
		}
		metrics.EventsHandledTotal.WithLabelValues(topic).Inc()
		return nil
	}
}

func (f *Forwarder) handleMatchCreated(msg *message.Message) error {
	var ev MatchCreated
	if err := decode(msg.Payload, &ev); err != nil {
		return err
	}
	for userID, view := range ev.Views {
		f.notifier.SendToUser(userID, realtimeNewMatch, view)
	}
	return nil
}

func (f *Forwarder) handleMatchRemoved(msg *message.Message) error {
	var ev MatchRemoved
	if err := decode(msg.Payload, &ev); err != nil {
		return err
	}
	f.notifier.SendToUser(ev.RecipientID, realtimeMatchRemoved, map[string]string{"matchId": ev.MatchID})
	return nil
}

func (f *Forwarder) handleMessageCreated(msg *message.Message) error {
	var ev MessageCreated
	if err := decode(msg.Payload, &ev); err != nil {
		return err
	}
	f.notifier.SendToUser(ev.RecipientID, realtimeNewMessage, ev.Message)
	return nil
}

func (f *Forwarder) handleUserBanned(msg *message.Message) error {
	var ev UserBanned
	if err := decode(msg.Payload, &ev); err != nil {
		return err
	}
	f.notifier.DisconnectUser(ev.UserID, realtimeAccountBanned, map[string]string{"reason": ev.Reason})
	return nil
}

// Run builds a fresh router and blocks until ctx is cancelled. A watermill
// router cannot be restarted, so each supervised run gets its own.
func (f *Forwarder) Run(ctx context.Context, sub message.Subscriber, logger watermill.LoggerAdapter) error {
	router, err := f.NewRouter(sub, logger)
	if err != nil {
		return err
	}
	return router.Run(ctx)
}
