// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

// Envelope types sent over /ws.
const (
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
	MessageTypeNewMatch       = "new_match"
	MessageTypeNewMessage     = "new_message"
	MessageTypeMatchRemoved   = "match_removed"
	MessageTypeTyping         = "typing"
	MessageTypeAccountBanned  = "account_banned"
	MessageTypeServerShutdown = "server_shutdown"
)

// Message is the outbound envelope {type, data}. Data is always present on
// the wire, as null when empty.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InboundMessage is a decoded client frame. Data is kept raw so handlers can
// decode it into their own types.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// InboundHandler receives client frames the hub does not answer itself.
// userID is empty for anonymous sockets.
type InboundHandler func(ctx context.Context, userID string, msg InboundMessage)

type directMessage struct {
	userID  string
	message Message
}

type kickRequest struct {
	userID string
	reason Message
}

// Hub tracks open sockets and fans messages out to all of them or to the
// sockets of one user. All map mutation happens on the Run goroutine or under
// mu for readers.
type Hub struct {
	clients map[*Client]bool
	byUser  map[string]map[*Client]bool

	broadcast chan Message
	direct    chan directMessage
	kick      chan kickRequest

	Register   chan *Client
	Unregister chan *Client

	// done is closed when RunWithContext returns so pumps never block on a
	// stopped hub.
	done     chan struct{}
	doneOnce sync.Once

	mu      sync.RWMutex
	inbound InboundHandler
}

// NewHub creates a hub. Call RunWithContext to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
		broadcast:  make(chan Message, 256),
		direct:     make(chan directMessage, 256),
		kick:       make(chan kickRequest, 16),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetInboundHandler installs the callback for non-ping client frames. Must be
// called before the hub starts accepting clients.
func (h *Hub) SetInboundHandler(fn InboundHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inbound = fn
}

func (h *Hub) inboundHandler() InboundHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.inbound
}

// Serve implements suture.Service, so the hub goes straight into the
// messaging layer of the supervisor tree.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

func (h *Hub) String() string {
	return "websocket-hub"
}

// RunWithContext processes registrations and deliveries until ctx is done,
// then tells every client server_shutdown and closes it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	defer h.doneOnce.Do(func() { close(h.done) })
	for {
		// Registrations first so a message sent right after connect is not
		// lost to a client that is still queued.
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			n := h.GetClientCount()
			h.closeAll()
			logging.Info().
				Str("component", "websocket-hub").
				Int("clients_closed", n).
				Msg("websocket hub stopped")
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.deliver(h.snapshot(""), msg)
		case dm := <-h.direct:
			h.deliver(h.snapshot(dm.userID), dm.message)
		case kr := <-h.kick:
			h.kickUser(kr)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	if c.userID != "" {
		set := h.byUser[c.userID]
		if set == nil {
			set = make(map[*Client]bool)
			h.byUser[c.userID] = set
		}
		set[c] = true
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectionsActive.Inc()
	logging.Debug().Uint64("client_id", c.id).Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	removed := h.dropLocked(c)
	total := len(h.clients)
	h.mu.Unlock()

	if removed {
		logging.Debug().Uint64("client_id", c.id).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// dropLocked removes c and closes its send channel. Caller holds mu.
func (h *Hub) dropLocked(c *Client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	if set := h.byUser[c.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.userID)
		}
	}
	close(c.send)
	metrics.WSConnectionsActive.Dec()
	return true
}

// snapshot returns the target clients ordered by id. An empty userID selects
// every client.
func (h *Hub) snapshot(userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Client
	if userID == "" {
		out = make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			out = append(out, c)
		}
	} else {
		for c := range h.byUser[userID] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// deliver queues msg on each client; a client whose buffer is full is too slow
// to keep and is dropped.
func (h *Hub) deliver(targets []*Client, msg Message) {
	var slow []*Client
	for _, c := range targets {
		select {
		case c.send <- msg:
			metrics.RecordWSMessage("out", msg.Type)
		default:
			slow = append(slow, c)
		}
	}
	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range slow {
		if h.dropLocked(c) {
			metrics.WSDroppedTotal.WithLabelValues("slow_consumer").Inc()
		}
	}
	h.mu.Unlock()
}

func (h *Hub) kickUser(kr kickRequest) {
	targets := h.snapshot(kr.userID)
	h.deliver(targets, kr.reason)

	h.mu.Lock()
	for _, c := range targets {
		h.dropLocked(c)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- Message{Type: MessageTypeServerShutdown}:
		default:
		}
		h.dropLocked(c)
	}
}

// BroadcastJSON queues a message for every connected client.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		metrics.WSDroppedTotal.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// SendToUser queues a message for every socket of one user. Users with no
// open socket are skipped silently.
func (h *Hub) SendToUser(userID, messageType string, data interface{}) {
	if userID == "" {
		return
	}
	select {
	case h.direct <- directMessage{userID: userID, message: Message{Type: messageType, Data: data}}:
	default:
		metrics.WSDroppedTotal.WithLabelValues("direct_full").Inc()
		logging.Warn().Str("message_type", messageType).Msg("direct channel full, dropping message")
	}
}

// DisconnectUser sends a final message to each of the user's sockets and
// closes them.
func (h *Hub) DisconnectUser(userID, messageType string, data interface{}) {
	if userID == "" {
		return
	}
	select {
	case h.kick <- kickRequest{userID: userID, reason: Message{Type: messageType, Data: data}}:
	case <-h.done:
	}
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// GetClientCount returns the number of open sockets.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsOnline reports whether the user has at least one open socket.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}
