// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrNotOpen is returned by Send before the connection is open or after
	// it closed.
	ErrNotOpen = errors.New("realtime: transport not open")

	errTransportClosed = errors.New("realtime: transport closed")
)

// TransportEvents are the callbacks a Transport fires. They run on the
// transport's own goroutine; OnClose fires exactly once per Open that got
// past the idempotency check, whether the dial failed or an open
// connection ended.
type TransportEvents struct {
	OnOpen    func()
	OnMessage func(frame []byte)
	OnClose   func(err error)
}

// Transport is a single-use connection. Open starts connecting and returns
// at once; the outcome arrives through TransportEvents.
type Transport interface {
	Open()
	Send(frame []byte) error
	Close() error
}

// TransportFactory creates the transport for one connection attempt.
type TransportFactory func(endpoint string, events TransportEvents) Transport

// TransportConfig tunes the gorilla/websocket transport.
type TransportConfig struct {
	// Header is sent with the handshake, Origin in particular.
	Header http.Header

	// HandshakeTimeout of zero waits for the dial indefinitely.
	HandshakeTimeout time.Duration

	// WriteWait bounds each frame write.
	WriteWait time.Duration

	// ReadTimeout closes a connection that received neither a frame nor a
	// ping for this long. Zero disables it.
	ReadTimeout time.Duration
}

const defaultWriteWait = 10 * time.Second

type wsTransport struct {
	endpoint string
	cfg      TransportConfig
	events   TransportEvents
	dialer   *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	opening bool
	closed  bool
	cancel  context.CancelFunc

	writeMu sync.Mutex
}

// NewWebSocketTransport returns a gorilla/websocket Transport for endpoint.
func NewWebSocketTransport(endpoint string, events TransportEvents, cfg TransportConfig) Transport {
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaultWriteWait
	}
	return &wsTransport{
		endpoint: endpoint,
		cfg:      cfg,
		events:   events,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// Open is a no-op while a connection is open or being dialled.
func (t *wsTransport) Open() {
	t.mu.Lock()
	if t.closed || t.opening || t.conn != nil {
		t.mu.Unlock()
		return
	}
	t.opening = true
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.mu.Unlock()

	go t.run(ctx, cancel)
}

func (t *wsTransport) run(ctx context.Context, cancel context.CancelFunc) {
	conn, resp, err := t.dialer.DialContext(ctx, t.endpoint, t.cfg.Header)
	cancel()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.mu.Lock()
	t.opening = false
	if err == nil && t.closed {
		_ = conn.Close()
		err = errTransportClosed
	}
	if err != nil {
		t.mu.Unlock()
		t.events.OnClose(err)
		return
	}
	t.conn = conn
	t.mu.Unlock()

	t.armReadDeadline(conn)
	conn.SetPingHandler(func(data string) error {
		t.armReadDeadline(conn)
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(t.cfg.WriteWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	t.events.OnOpen()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			t.conn = nil
			t.mu.Unlock()
			_ = conn.Close()
			t.events.OnClose(err)
			return
		}
		t.armReadDeadline(conn)
		t.events.OnMessage(frame)
	}
}

func (t *wsTransport) armReadDeadline(conn *websocket.Conn) {
	if t.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout))
	}
}

func (t *wsTransport) Send(frame []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// Close aborts a pending dial or closes the open connection. The transport
// cannot be reopened.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn == nil {
		return nil
	}

	t.writeMu.Lock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	t.writeMu.Unlock()
	return conn.Close()
}
