// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newBadgerStore(t *testing.T) SessionStore {
	t.Helper()
	store, err := OpenBadgerSessionStore("")
	if err != nil {
		t.Fatalf("OpenBadgerSessionStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newMemoryStore(t *testing.T) SessionStore {
	t.Helper()
	return NewMemorySessionStore()
}

var sessionBackends = []struct {
	name string
	new  func(t *testing.T) SessionStore
}{
	{"memory", newMemoryStore},
	{"badger", newBadgerStore},
}

func mustSession(t *testing.T, userID string, ttl time.Duration) *Session {
	t.Helper()
	s, err := NewSession(userID, ProviderPhone, ttl)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func TestSessionStore_CreateGetDelete(t *testing.T) {
	for _, b := range sessionBackends {
		t.Run(b.name, func(t *testing.T) {
			store := b.new(t)
			ctx := context.Background()

			s := mustSession(t, "user-1", time.Hour)
			if err := store.Create(ctx, s); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			got, err := store.Get(ctx, s.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.UserID != "user-1" || got.Provider != ProviderPhone {
				t.Errorf("Get() = %+v", got)
			}

			if err := store.Delete(ctx, s.ID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("Get() after delete error = %v, want ErrSessionNotFound", err)
			}
			if err := store.Delete(ctx, s.ID); err != nil {
				t.Errorf("second Delete() error = %v", err)
			}
		})
	}
}

func TestSessionStore_Expired(t *testing.T) {
	for _, b := range sessionBackends {
		t.Run(b.name, func(t *testing.T) {
			store := b.new(t)
			ctx := context.Background()

			s := mustSession(t, "user-1", time.Hour)
			s.ExpiresAt = time.Now().Add(-time.Minute)
			if err := store.Create(ctx, s); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			_, err := store.Get(ctx, s.ID)
			if !errors.Is(err, ErrSessionExpired) && !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("Get() error = %v, want expired or not found", err)
			}
		})
	}
}

func TestSessionStore_Touch(t *testing.T) {
	for _, b := range sessionBackends {
		t.Run(b.name, func(t *testing.T) {
			store := b.new(t)
			ctx := context.Background()

			s := mustSession(t, "user-1", time.Minute)
			if err := store.Create(ctx, s); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			later := time.Now().Add(2 * time.Hour).Truncate(time.Second)
			if err := store.Touch(ctx, s.ID, later); err != nil {
				t.Fatalf("Touch() error = %v", err)
			}
			got, err := store.Get(ctx, s.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !got.ExpiresAt.Equal(later) {
				t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, later)
			}

			if err := store.Touch(ctx, "missing", later); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("Touch(missing) error = %v, want ErrSessionNotFound", err)
			}
		})
	}
}

func TestSessionStore_Update(t *testing.T) {
	for _, b := range sessionBackends {
		t.Run(b.name, func(t *testing.T) {
			store := b.new(t)
			ctx := context.Background()

			s := mustSession(t, "user-1", time.Hour)
			if err := store.Update(ctx, s); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("Update(missing) error = %v, want ErrSessionNotFound", err)
			}
			if err := store.Create(ctx, s); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			s.Provider = ProviderGoogle
			if err := store.Update(ctx, s); err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			got, err := store.Get(ctx, s.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Provider != ProviderGoogle {
				t.Errorf("Provider = %q, want google", got.Provider)
			}
		})
	}
}

func TestSessionStore_DeleteByUserID(t *testing.T) {
	for _, b := range sessionBackends {
		t.Run(b.name, func(t *testing.T) {
			store := b.new(t)
			ctx := context.Background()

			a1 := mustSession(t, "alice", time.Hour)
			a2 := mustSession(t, "alice", time.Hour)
			bob := mustSession(t, "bob", time.Hour)
			for _, s := range []*Session{a1, a2, bob} {
				if err := store.Create(ctx, s); err != nil {
					t.Fatalf("Create() error = %v", err)
				}
			}

			n, err := store.DeleteByUserID(ctx, "alice")
			if err != nil {
				t.Fatalf("DeleteByUserID() error = %v", err)
			}
			if n != 2 {
				t.Errorf("DeleteByUserID() = %d, want 2", n)
			}
			for _, s := range []*Session{a1, a2} {
				if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
					t.Errorf("Get(%s) error = %v, want ErrSessionNotFound", s.ID, err)
				}
			}
			if _, err := store.Get(ctx, bob.ID); err != nil {
				t.Errorf("bob's session was removed: %v", err)
			}
		})
	}
}

func TestSessionStore_CleanupExpired(t *testing.T) {
	for _, b := range sessionBackends {
		t.Run(b.name, func(t *testing.T) {
			store := b.new(t)
			ctx := context.Background()

			live := mustSession(t, "user-1", time.Hour)
			if err := store.Create(ctx, live); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			for i := 0; i < 3; i++ {
				s := mustSession(t, "user-2", time.Hour)
				if err := store.Create(ctx, s); err != nil {
					t.Fatalf("Create() error = %v", err)
				}
				if err := store.Touch(ctx, s.ID, time.Now().Add(-time.Second)); err != nil {
					t.Fatalf("Touch() error = %v", err)
				}
			}

			n, err := store.CleanupExpired(ctx)
			if err != nil {
				t.Fatalf("CleanupExpired() error = %v", err)
			}
			// Badger may already have dropped entries through their TTL.
			if n > 3 {
				t.Errorf("CleanupExpired() = %d, want <= 3", n)
			}
			if _, err := store.Get(ctx, live.ID); err != nil {
				t.Errorf("live session removed: %v", err)
			}
			if n, _ := store.DeleteByUserID(ctx, "user-2"); n != 0 {
				t.Errorf("%d expired sessions survived cleanup", n)
			}
		})
	}
}

func TestMemorySessionStore_ReturnsCopies(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	s := mustSession(t, "user-1", time.Hour)
	if err := store.Create(ctx, s); err != nil {
		t.Fatal(err)
	}
	s.UserID = "mutated"

	got, _ := store.Get(ctx, s.ID)
	got.Provider = "mutated"

	again, _ := store.Get(ctx, s.ID)
	if again.UserID != "user-1" || again.Provider != ProviderPhone {
		t.Errorf("stored session was mutated: %+v", again)
	}
}

func TestNewSession_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := mustSession(t, "u", time.Hour)
		if len(s.ID) != 64 {
			t.Fatalf("id length = %d, want 64", len(s.ID))
		}
		if seen[s.ID] {
			t.Fatalf("duplicate id %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestNewSessionStore(t *testing.T) {
	tests := []struct {
		kind    string
		wantErr bool
	}{
		{"", false},
		{"memory", false},
		{"badger", false},
		{"redis", true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			path := ""
			if tt.kind == "badger" {
				path = t.TempDir()
			}
			store, err := NewSessionStore(tt.kind, path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSessionStore(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
			if store != nil {
				_ = store.Close()
			}
		})
	}
}
