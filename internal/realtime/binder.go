// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

// State of a Binder's connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Timer is the handle of a scheduled retry. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Config describes where a Binder connects and how it retries.
type Config struct {
	// PageURL is the URL of the page the client runs on; see EndpointURL.
	PageURL string

	Policy ReconnectPolicy

	// Header is sent with every handshake. Origin defaults to the page's
	// origin, which the server requires.
	Header http.Header

	HandshakeTimeout time.Duration
	WriteWait        time.Duration
	ReadTimeout      time.Duration
}

// Option customizes a Binder.
type Option func(*Binder)

// WithTransportFactory replaces the gorilla/websocket transport.
func WithTransportFactory(f TransportFactory) Option {
	return func(b *Binder) { b.newTransport = f }
}

// WithAfterFunc replaces time.AfterFunc for retry scheduling.
func WithAfterFunc(f AfterFunc) Option {
	return func(b *Binder) { b.afterFunc = f }
}

func WithLogger(l zerolog.Logger) Option {
	return func(b *Binder) { b.log = l }
}

// Binder ties one realtime connection to the lifetime of its owner. All
// state changes happen under mu; transport callbacks carry the generation
// they were created for and are ignored once it is stale.
type Binder struct {
	endpoint     string
	endpointErr  error
	policy       ReconnectPolicy
	newTransport TransportFactory
	afterFunc    AfterFunc
	log          zerolog.Logger

	mu         sync.Mutex
	transport  Transport
	generation uint64
	state      State
	timer      Timer
	timerSeq   uint64
	attempt    int
	reconnect  bool
	gaveUp     bool
	unmounted  bool
	last       Envelope
	hasLast    bool
	onMessage  func(Envelope)
}

// NewBinder returns an idle Binder. Nothing connects until Mount.
func NewBinder(cfg Config, opts ...Option) *Binder {
	b := &Binder{
		policy:    cfg.Policy,
		afterFunc: realAfterFunc,
		log:       logging.WithComponent("realtime"),
	}
	b.endpoint, b.endpointErr = EndpointURL(cfg.PageURL)

	header := cfg.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if header.Get("Origin") == "" {
		if origin, err := originOf(cfg.PageURL); err == nil {
			header.Set("Origin", origin)
		}
	}
	tcfg := TransportConfig{
		Header:           header,
		HandshakeTimeout: cfg.HandshakeTimeout,
		WriteWait:        cfg.WriteWait,
		ReadTimeout:      cfg.ReadTimeout,
	}
	b.newTransport = func(endpoint string, events TransportEvents) Transport {
		return NewWebSocketTransport(endpoint, events, tcfg)
	}

	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Endpoint is the derived /ws URL, empty when PageURL was unusable.
func (b *Binder) Endpoint() string {
	return b.endpoint
}

// GaveUp reports whether the policy ran out of attempts. It is cleared by
// Connect.
func (b *Binder) GaveUp() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gaveUp
}

// Mount opens the connection and enables reconnects.
func (b *Binder) Mount() {
	b.Connect()
}

// Unmount closes the connection for good. A pending retry is cancelled and
// later calls to Mount or Connect do nothing.
func (b *Binder) Unmount() {
	b.mu.Lock()
	if b.unmounted {
		b.mu.Unlock()
		return
	}
	b.unmounted = true
	t := b.teardownLocked()
	b.mu.Unlock()

	if t != nil {
		_ = t.Close()
	}
	b.log.Debug().Msg("realtime binder unmounted")
}

// Connect opens a connection if none is open or opening and re-enables
// reconnects. A pending retry is replaced by an immediate attempt.
func (b *Binder) Connect() {
	b.mu.Lock()
	if b.unmounted {
		b.mu.Unlock()
		return
	}
	b.reconnect = true
	b.gaveUp = false
	if b.timer != nil {
		b.cancelTimerLocked()
	}
	t := b.openLocked()
	b.mu.Unlock()

	if t != nil {
		t.Open()
	}
}

// Disconnect closes the connection without reconnecting. The Binder can be
// connected again later.
func (b *Binder) Disconnect() {
	b.mu.Lock()
	t := b.teardownLocked()
	b.mu.Unlock()

	if t != nil {
		_ = t.Close()
	}
}

// Send writes env if connected and silently drops it otherwise.
func (b *Binder) Send(env Envelope) {
	b.mu.Lock()
	t := b.transport
	connected := b.state == StateConnected
	b.mu.Unlock()

	if !connected || t == nil {
		dropWhileDisconnected(env)
		return
	}

	frame, err := Encode(env)
	if err != nil {
		b.log.Warn().Err(err).Str("type", env.Type).Msg("cannot encode outbound frame")
		return
	}
	if err := t.Send(frame); err != nil {
		// The read side sees the same failure and drives the reconnect.
		b.log.Debug().Err(err).Str("type", env.Type).Msg("send failed")
	}
}

// OnMessage registers the callback for inbound envelopes, replacing any
// earlier one. It runs on the transport goroutine, in arrival order.
func (b *Binder) OnMessage(fn func(Envelope)) {
	b.mu.Lock()
	b.onMessage = fn
	b.mu.Unlock()
}

func (b *Binder) IsConnected() bool {
	return b.State() == StateConnected
}

func (b *Binder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// LastMessage returns the most recent inbound envelope.
func (b *Binder) LastMessage() (Envelope, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.hasLast
}

// openLocked creates the next transport. The caller opens it after
// releasing mu, so a transport that reports synchronously cannot deadlock.
func (b *Binder) openLocked() Transport {
	if b.unmounted || b.transport != nil {
		return nil
	}
	if b.endpointErr != nil {
		b.log.Error().Err(b.endpointErr).Msg("realtime endpoint unavailable")
		return nil
	}

	b.generation++
	gen := b.generation
	b.state = StateConnecting
	b.transport = b.newTransport(b.endpoint, TransportEvents{
		OnOpen:    func() { b.handleOpen(gen) },
		OnMessage: func(frame []byte) { b.handleMessage(gen, frame) },
		OnClose:   func(err error) { b.handleClose(gen, err) },
	})
	return b.transport
}

// teardownLocked disables reconnects, cancels a pending retry and detaches
// the transport, which the caller closes outside the lock.
func (b *Binder) teardownLocked() Transport {
	b.reconnect = false
	b.cancelTimerLocked()

	t := b.transport
	b.transport = nil
	b.generation++
	b.state = StateDisconnected
	b.attempt = 0
	return t
}

func (b *Binder) cancelTimerLocked() {
	if b.timer == nil {
		return
	}
	b.timer.Stop()
	b.timer = nil
	b.timerSeq++
}

func (b *Binder) handleOpen(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		return
	}
	b.state = StateConnected
	b.attempt = 0
	b.log.Info().Str("endpoint", b.endpoint).Msg("realtime connected")
}

func (b *Binder) handleMessage(gen uint64, frame []byte) {
	env, ok := Decode(frame)
	if !ok {
		return
	}

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		return
	}
	b.last = env
	b.hasLast = true
	fn := b.onMessage
	b.mu.Unlock()

	if fn != nil {
		fn(env)
	}
}

func (b *Binder) handleClose(gen uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		return
	}
	b.transport = nil
	b.state = StateDisconnected

	if !b.reconnect || b.unmounted || b.timer != nil {
		return
	}
	delay, ok := b.policy.NextDelay(b.attempt + 1)
	if !ok {
		b.gaveUp = true
		b.log.Warn().Err(err).Int("attempts", b.attempt).Msg("realtime connection lost, giving up")
		return
	}
	b.attempt++

	b.timerSeq++
	seq := b.timerSeq
	b.timer = b.afterFunc(delay, func() { b.retry(seq) })
	metrics.RealtimeReconnectsTotal.Inc()
	b.log.Warn().
		Err(err).
		Dur("delay", delay).
		Int("attempt", b.attempt).
		Msg("realtime connection lost, reconnecting")
}

func (b *Binder) retry(seq uint64) {
	b.mu.Lock()
	if b.timer == nil || seq != b.timerSeq {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	t := b.openLocked()
	b.mu.Unlock()

	if t != nil {
		t.Open()
	}
}
