// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package websocket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

// ClientOptions tunes a single connection. Zero values fall back to defaults.
type ClientOptions struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64

	// MessagesPerSecond and Burst bound inbound frames; zero disables limiting.
	MessagesPerSecond float64
	Burst             int
}

// DefaultClientOptions mirrors the realtime defaults in config.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		WriteWait:         10 * time.Second,
		PongWait:          60 * time.Second,
		MaxMessageSize:    64 * 1024,
		MessagesPerSecond: 20,
		Burst:             40,
	}
}

func (o ClientOptions) withDefaults() ClientOptions {
	d := DefaultClientOptions()
	if o.WriteWait <= 0 {
		o.WriteWait = d.WriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = d.PongWait
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = d.MaxMessageSize
	}
	return o
}

// clientIDCounter hands out increasing ids so fan-out order is stable.
var clientIDCounter atomic.Uint64

// Client is one open socket. The hub owns its send channel.
type Client struct {
	id      uint64
	userID  string
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	opts    ClientOptions
	limiter *rate.Limiter
}

// NewClient wraps an upgraded connection. userID may be empty for sockets
// opened without a session.
func NewClient(hub *Hub, conn *websocket.Conn, userID string, opts ClientOptions) *Client {
	opts = opts.withDefaults()
	c := &Client{
		id:     clientIDCounter.Add(1),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan Message, 256),
		opts:   opts,
	}
	if opts.MessagesPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.MessagesPerSecond), burst)
	}
	return c
}

func (c *Client) ID() uint64 {
	return c.id
}

func (c *Client) UserID() string {
	return c.userID
}

// decodeFrame parses a client frame. Frames that are not a JSON object with a
// string type are rejected.
func decodeFrame(raw []byte) (InboundMessage, bool) {
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return InboundMessage{}, false
	}
	if msg.Type == "" {
		return InboundMessage{}, false
	}
	return msg, true
}

// handleFrame answers pings and forwards everything else to the hub's
// inbound handler.
func (c *Client) handleFrame(raw []byte) {
	if c.limiter != nil && !c.limiter.Allow() {
		metrics.WSDroppedTotal.WithLabelValues("rate_limited").Inc()
		return
	}

	msg, ok := decodeFrame(raw)
	if !ok {
		metrics.WSDroppedTotal.WithLabelValues("malformed").Inc()
		logging.Debug().Uint64("client_id", c.id).Msg("ignoring malformed websocket frame")
		return
	}
	metrics.RecordWSMessage("in", msg.Type)

	if msg.Type == MessageTypePing {
		select {
		case c.send <- Message{Type: MessageTypePong, Data: nil}:
		default:
		}
		return
	}

	if fn := c.hub.inboundHandler(); fn != nil {
		ctx := logging.ContextWithUserID(context.Background(), c.userID)
		fn(ctx, c.userID, msg)
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		c.handleFrame(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker((c.opts.PongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			payload, err := json.Marshal(message)
			if err != nil {
				logging.Error().Err(err).Str("message_type", message.Type).Msg("failed to encode websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start runs the read and write pumps. The client must already be registered.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Attach registers an upgraded connection with the hub and starts its pumps.
// It returns nil and closes conn if the hub has already stopped.
func (h *Hub) Attach(conn *websocket.Conn, userID string, opts ClientOptions) *Client {
	c := NewClient(h, conn, userID, opts)
	select {
	case h.Register <- c:
	case <-h.done:
		_ = conn.Close()
		return nil
	}
	c.Start()
	return c
}
