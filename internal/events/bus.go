// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/mix/internal/config"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

// Backend names accepted in events.backend.
const (
	BackendMemory   = "memory"
	BackendNATS     = "nats"
	BackendEmbedded = "embedded"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("events: bus closed")

// Publisher is the narrow interface handlers depend on.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Bus owns the watermill publisher and subscriber for the configured
// backend. Publishing goes through a circuit breaker so a dead broker fails
// fast instead of stalling request handlers.
type Bus struct {
	backend    string
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[interface{}]
	embedded   *EmbeddedServer
	logger     watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus builds the backend named by cfg.Backend.
func NewBus(cfg config.EventsConfig) (*Bus, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	b := &Bus{
		backend: cfg.Backend,
		breaker: NewCircuitBreaker("events-publisher", 30*time.Second),
		logger:  logger,
	}

	switch cfg.Backend {
	case BackendMemory, "":
		b.backend = BackendMemory
		bufferSize := cfg.BufferSize
		if bufferSize < 1 {
			bufferSize = 256
		}
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(bufferSize),
		}, logger)
		b.publisher = ch
		b.subscriber = ch

	case BackendNATS:
		if err := b.connectNATS(cfg.NATSURL); err != nil {
			return nil, err
		}

	case BackendEmbedded:
		srv, err := NewEmbeddedServer(cfg.EmbeddedHost, cfg.EmbeddedPort)
		if err != nil {
			return nil, err
		}
		b.embedded = srv
		if err := b.connectNATS(srv.ClientURL()); err != nil {
			srv.Shutdown()
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}

	logging.Info().Str("backend", b.backend).Msg("event bus ready")
	return b, nil
}

func (b *Bus) natsOptions(role string) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("mix-" + role),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				b.logger.Error("NATS disconnected", err, watermill.LogFields{"role": role})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			b.logger.Info("NATS reconnected", watermill.LogFields{"role": role, "url": nc.ConnectedUrl()})
		}),
	}
}

// connectNATS uses core NATS without JetStream and without a queue group:
// every server instance must see every event to reach its own sockets.
func (b *Bus) connectNATS(url string) error {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: b.natsOptions("publisher"),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, b.logger)
	if err != nil {
		return fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		CloseTimeout:     10 * time.Second,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      b.natsOptions("subscriber"),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, b.logger)
	if err != nil {
		_ = pub.Close()
		return fmt.Errorf("create watermill subscriber: %w", err)
	}

	b.publisher = pub
	b.subscriber = sub
	return nil
}

// Backend returns the active backend name.
func (b *Bus) Backend() string {
	return b.backend
}

// Subscriber exposes the watermill subscriber for the forwarder router.
func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

// Logger is the watermill adapter shared by bus components.
func (b *Bus) Logger() watermill.LoggerAdapter {
	return b.logger
}

// Publish encodes payload as JSON and sends it on topic. The request's
// correlation id travels in the message metadata.
func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	data, err := encode(payload)
	if err != nil {
		return err
	}
	msg := message.NewMessage(uuid.NewString(), data)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}

	_, err = b.breaker.Execute(func() (interface{}, error) {
		return nil, b.publisher.Publish(topic, msg)
	})
	metrics.RecordEventPublish(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close shuts down the publisher, the subscriber and the embedded server.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	// gochannel uses one value for both roles.
	if b.backend != BackendMemory {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if b.embedded != nil {
		b.embedded.Shutdown()
	}
	return errors.Join(errs...)
}
