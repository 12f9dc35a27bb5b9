// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package services

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

var errRouterStopped = errors.New("event router stopped unexpectedly")

// ForwarderRunner is satisfied by *events.Forwarder.
type ForwarderRunner interface {
	Run(ctx context.Context, sub message.Subscriber, logger watermill.LoggerAdapter) error
}

// EventForwarderService consumes domain events from the bus and pushes
// them to connected sockets. Every restart builds a fresh watermill router.
type EventForwarderService struct {
	forwarder  ForwarderRunner
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
	name       string
}

// NewEventForwarderService wires forwarder to the bus side given by sub.
func NewEventForwarderService(forwarder ForwarderRunner, sub message.Subscriber, logger watermill.LoggerAdapter) *EventForwarderService {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &EventForwarderService{
		forwarder:  forwarder,
		subscriber: sub,
		logger:     logger,
		name:       "event-forwarder",
	}
}

// Serve implements suture.Service.
func (s *EventForwarderService) Serve(ctx context.Context) error {
	if err := s.forwarder.Run(ctx, s.subscriber, s.logger); err != nil {
		return err
	}
	// A router that stops on its own has lost its subscriber; report it so
	// the supervisor restarts us.
	if ctx.Err() == nil {
		return errRouterStopped
	}
	return ctx.Err()
}

func (s *EventForwarderService) String() string {
	return s.name
}
