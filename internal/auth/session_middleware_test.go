// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/mix/internal/logging"
)

func newTestManager(t *testing.T) (*SessionManager, *MemorySessionStore) {
	t.Helper()
	store := NewMemorySessionStore()
	return NewSessionManager(store, newTestSigner(t, false), time.Hour), store
}

func startSession(t *testing.T, m *SessionManager, userID string) (*Session, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	s, err := m.Start(context.Background(), rec, userID, ProviderPhone)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s, rec.Result().Cookies()[0]
}

func TestSessionManager_Authenticate(t *testing.T) {
	m, _ := newTestManager(t)
	_, cookie := startSession(t, m, "user-1")

	var gotUser, gotLogUser string
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotLogUser = logging.UserIDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	r.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if gotUser != "user-1" || gotLogUser != "user-1" {
		t.Errorf("user = %q, log user = %q, want user-1", gotUser, gotLogUser)
	}
}

func TestSessionManager_AuthenticateAnonymous(t *testing.T) {
	m, _ := newTestManager(t)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"unsigned", &http.Cookie{Name: DefaultCookieName, Value: "deadbeef"}},
		{"unknown session", &http.Cookie{Name: DefaultCookieName, Value: m.cookie.Sign("deadbeef")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if s := SessionFromContext(r.Context()); s != nil {
					t.Errorf("unexpected session %+v", s)
				}
			}))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			handler.ServeHTTP(httptest.NewRecorder(), r)
			if !called {
				t.Error("next handler not called")
			}
		})
	}
}

func TestSessionManager_SlidingExpiry(t *testing.T) {
	m, store := newTestManager(t)
	s, cookie := startSession(t, m, "user-1")

	short := time.Now().Add(time.Minute)
	if err := store.Touch(context.Background(), s.ID, short); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	m.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), r)

	got, err := store.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.ExpiresAt.After(short.Add(30 * time.Minute)) {
		t.Errorf("ExpiresAt = %v, expected it to slide forward", got.ExpiresAt)
	}
}

func TestRequireSession(t *testing.T) {
	m, _ := newTestManager(t)
	_, cookie := startSession(t, m, "user-1")

	unauthorized := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}
	protected := m.Authenticate(RequireSession(unauthorized)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Errorf("signed-in status = %d, want 204", rec.Code)
	}
}

func TestSessionManager_End(t *testing.T) {
	m, store := newTestManager(t)
	_, cookie := startSession(t, m, "user-1")

	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	r.AddCookie(cookie)
	rec := httptest.NewRecorder()
	if err := m.End(rec, r); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	if store.Len() != 0 {
		t.Errorf("store still holds %d sessions", store.Len())
	}
	if _, ok := m.Lookup(r); ok {
		t.Error("Lookup() found the ended session")
	}
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", cleared)
	}

	// Ending an anonymous request still clears the cookie.
	rec = httptest.NewRecorder()
	if err := m.End(rec, httptest.NewRequest(http.MethodPost, "/", nil)); err != nil {
		t.Fatalf("End() anonymous error = %v", err)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Error("anonymous End() did not clear the cookie")
	}
}
