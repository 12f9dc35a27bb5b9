// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	server "github.com/tomtom215/mix/internal/websocket"
)

const testUserID = "u-realtime"

// hubServer serves /ws from a running hub and records the Origin of each
// handshake.
type hubServer struct {
	*httptest.Server
	hub     *server.Hub
	origins chan string
	accept  atomic.Bool
}

func newHubServer(t *testing.T) *hubServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hs := &hubServer{hub: server.NewHub(), origins: make(chan string, 16)}
	hs.accept.Store(true)
	go func() { _ = hs.hub.RunWithContext(ctx) }()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return r.Header.Get("Origin") != "" }}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if !hs.accept.Load() {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		hs.origins <- r.Header.Get("Origin")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hs.hub.Attach(conn, testUserID, server.DefaultClientOptions())
	})
	hs.Server = httptest.NewServer(mux)

	t.Cleanup(func() {
		cancel()
		<-hs.hub.Done()
		hs.Server.Close()
	})
	return hs
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBinder_PingPongAgainstHub(t *testing.T) {
	hs := newHubServer(t)

	received := make(chan Envelope, 8)
	b := NewBinder(Config{PageURL: hs.URL + "/app/matches", HandshakeTimeout: 5 * time.Second})
	b.OnMessage(func(env Envelope) { received <- env })
	b.Mount()
	defer b.Unmount()

	waitUntil(t, "connection", b.IsConnected)
	if origin := <-hs.origins; origin != hs.URL {
		t.Errorf("Origin = %q, want %q", origin, hs.URL)
	}

	b.Send(Envelope{Type: "ping"})

	select {
	case env := <-received:
		if env.Type != "pong" || string(env.Data) != "null" {
			t.Errorf("reply = %s/%s, want pong/null", env.Type, env.Data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no pong")
	}

	last, ok := b.LastMessage()
	if !ok || last.Type != "pong" {
		t.Errorf("LastMessage() = %+v, %v", last, ok)
	}
}

func TestBinder_ReconnectsAfterServerDrop(t *testing.T) {
	hs := newHubServer(t)

	b := NewBinder(Config{
		PageURL: hs.URL,
		Policy:  ReconnectPolicy{Delay: 50 * time.Millisecond},
	})
	b.Mount()
	defer b.Unmount()

	waitUntil(t, "first connection", b.IsConnected)
	<-hs.origins

	// Refuse the next handshake so the binder has to retry at least twice.
	hs.accept.Store(false)
	hs.hub.DisconnectUser(testUserID, server.MessageTypeServerShutdown, nil)
	waitUntil(t, "disconnect", func() bool { return !b.IsConnected() })

	time.Sleep(150 * time.Millisecond)
	hs.accept.Store(true)

	waitUntil(t, "reconnection", b.IsConnected)
	b.Unmount()
	waitUntil(t, "unmount", func() bool { return b.State() == StateDisconnected })
}
