// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/mix/internal/config"
	ws "github.com/tomtom215/mix/internal/websocket"
)

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()
	h := &Handler{config: &config.Config{Security: config.SecurityConfig{CORSOrigins: []string{"https://app.mix.example"}}}}

	tests := []struct {
		name   string
		host   string
		origin string
		want   bool
	}{
		{"missing", "api.mix.example", "", false},
		{"same host", "api.mix.example", "https://api.mix.example", true},
		{"same host with port", "localhost:5000", "http://localhost:5000", true},
		{"configured", "api.mix.example", "https://app.mix.example", true},
		{"foreign", "api.mix.example", "https://evil.example", false},
		{"control chars", "api.mix.example", "https://evil.example\r\nX: y", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(r); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}

type wsTestServer struct {
	*testServer
	srv *httptest.Server
}

func newWSTestServer(t *testing.T) *wsTestServer {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.mux)
	t.Cleanup(srv.Close)
	return &wsTestServer{testServer: ts, srv: srv}
}

func (s *wsTestServer) dial(t *testing.T, cookie *http.Cookie) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Origin", s.srv.URL)
	if cookie != nil {
		header.Set("Cookie", cookie.Name+"="+cookie.Value)
	}
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v (resp %v)", err, resp)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) ws.InboundMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(3 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg ws.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return msg
}

// pingPong round-trips a ping, which also proves the socket is registered.
func pingPong(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	msg := readEnvelope(t, conn)
	if msg.Type != ws.MessageTypePong || string(msg.Data) != "null" {
		t.Fatalf("got %s %s, want pong null", msg.Type, msg.Data)
	}
}

func TestWebSocket_AnonymousPingPong(t *testing.T) {
	t.Parallel()
	s := newWSTestServer(t)
	pingPong(t, s.dial(t, nil))
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	t.Parallel()
	s := newWSTestServer(t)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("dial with foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
}

func TestWebSocket_UserPushAndTyping(t *testing.T) {
	t.Parallel()
	s := newWSTestServer(t)
	a, b, aID, bID, matchID := s.matchedPair()

	connA := s.dial(t, a)
	connB := s.dial(t, b)
	pingPong(t, connA)
	pingPong(t, connB)

	if !s.hub.IsOnline(aID) || !s.hub.IsOnline(bID) {
		t.Fatal("sockets not bound to their users")
	}

	s.hub.SendToUser(aID, ws.MessageTypeNewMessage, map[string]string{"matchId": matchID})
	if msg := readEnvelope(t, connA); msg.Type != ws.MessageTypeNewMessage {
		t.Errorf("a got %s", msg.Type)
	}

	frame := `{"type":"typing","data":{"matchId":"` + matchID + `"}}`
	if err := connA.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatal(err)
	}
	msg := readEnvelope(t, connB)
	if msg.Type != ws.MessageTypeTyping {
		t.Fatalf("b got %s, want typing", msg.Type)
	}
	var ev typingEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.MatchID != matchID || ev.UserID != aID {
		t.Errorf("typing = %+v", ev)
	}
}
