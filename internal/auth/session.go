// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrSessionNotFound is returned when a session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when a session exists but has expired.
	ErrSessionExpired = errors.New("session expired")
)

// Sign-in providers recorded on a session.
const (
	ProviderPhone  = "phone"
	ProviderGoogle = "google"
)

// Session is a signed-in user. Only the id travels to the browser, inside
// the signed mix.session cookie.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Provider       string    `json:"provider"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// IsExpired reports whether the session is past its expiry at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NewSession builds a session for userID with a fresh random id.
func NewSession(userID, provider string, ttl time.Duration) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:             id,
		UserID:         userID,
		Provider:       provider,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
	}, nil
}

// generateSessionID returns 32 random bytes, hex encoded.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SessionStore persists sessions.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error

	// Get returns ErrSessionExpired for sessions past their expiry and
	// removes them as a side effect.
	Get(ctx context.Context, id string) (*Session, error)

	Update(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes every session of a user (logout everywhere, bans).
	DeleteByUserID(ctx context.Context, userID string) (int, error)

	// Touch moves the expiry forward and records the access time.
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// CleanupExpired removes expired sessions and returns how many went.
	CleanupExpired(ctx context.Context) (int, error)

	Close() error
}

// MemorySessionStore keeps sessions in process memory. Sessions are lost on
// restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byUser   map[string]map[string]struct{}
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]map[string]struct{}),
	}
}

func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *session
	s.sessions[cp.ID] = &cp
	ids, ok := s.byUser[cp.UserID]
	if !ok {
		ids = make(map[string]struct{})
		s.byUser[cp.UserID] = ids
	}
	ids[cp.ID] = struct{}{}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired(time.Now()) {
		s.mu.Lock()
		s.removeLocked(id)
		s.mu.Unlock()
		return nil, ErrSessionExpired
	}
	cp := *session
	return &cp, nil
}

func (s *MemorySessionStore) Update(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	cp := *session
	s.sessions[cp.ID] = &cp
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
	return nil
}

func (s *MemorySessionStore) DeleteByUserID(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byUser[userID]
	n := len(ids)
	for id := range ids {
		delete(s.sessions, id)
	}
	delete(s.byUser, userID)
	return n, nil
}

func (s *MemorySessionStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.ExpiresAt = expiresAt
	session.LastAccessedAt = time.Now()
	return nil
}

func (s *MemorySessionStore) CleanupExpired(_ context.Context) (int, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, session := range s.sessions {
		if session.IsExpired(now) {
			s.removeLocked(id)
			n++
		}
	}
	return n, nil
}

func (s *MemorySessionStore) Close() error { return nil }

// Len returns the number of stored sessions, expired ones included.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemorySessionStore) removeLocked(id string) {
	session, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	if ids, ok := s.byUser[session.UserID]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(s.byUser, session.UserID)
		}
	}
}
