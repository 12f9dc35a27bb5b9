// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/mix/internal/realtime"
	ws "github.com/tomtom215/mix/internal/websocket"
)

func newHubServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub()
	go func() { _ = hub.RunWithContext(ctx) }()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return r.Header.Get("Origin") != "" }}
	mux := http.NewServeMux()
	mux.HandleFunc(realtime.EndpointPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, "u-cli", ws.DefaultClientOptions())
	})
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		srv.Close()
	})
	return srv
}

func execute(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestConnect_PrintsPong(t *testing.T) {
	srv := newHubServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := execute(ctx, "connect", "--url", srv.URL, "--count", "1", "--quiet")
	if err != nil {
		t.Fatalf("connect error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1:\n%s", len(lines), out)
	}
	var line envelopeLine
	if err := json.Unmarshal([]byte(lines[0]), &line); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, lines[0])
	}
	var env realtime.Envelope
	if err := json.Unmarshal(line.Envelope, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != "pong" {
		t.Errorf("type = %q, want pong", env.Type)
	}
	if line.ReceivedAt.IsZero() {
		t.Error("receivedAt not set")
	}
}

func TestConnect_RejectsBadURL(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing url", []string{"connect"}},
		{"unsupported scheme", []string{"connect", "--url", "ftp://example.com"}},
		{"no host", []string{"connect", "--url", "http://"}},
		{"extra args", []string{"connect", "--url", "http://localhost", "surplus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(context.Background(), tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConnect_StopsOnCancel(t *testing.T) {
	// Nothing listens here, so the client keeps retrying until cancelled.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(300*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := execute(ctx, "connect", "--url", url, "--reconnect-delay", "20ms", "--quiet")
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("connect error = %v, want nil on cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("connect did not return after cancel")
	}
}

func TestConnect_ExitsWhenAttemptsExhausted(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	done := make(chan error, 1)
	go func() {
		_, err := execute(context.Background(), "connect", "--url", url, "--reconnect-delay", "20ms", "--max-attempts", "2", "--quiet")
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, errGaveUp) {
			t.Errorf("connect error = %v, want %v", err, errGaveUp)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("connect kept running after the last attempt")
	}
}
