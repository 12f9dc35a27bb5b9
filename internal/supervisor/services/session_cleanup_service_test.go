// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/mix/internal/auth"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) CleanupExpired(context.Context) (int, error) {
	s.calls.Add(1)
	return 0, s.err
}

func TestNewSessionCleanupService_Interval(t *testing.T) {
	if got := NewSessionCleanupService(&countingSweeper{}, 0).interval; got != defaultCleanupInterval {
		t.Errorf("interval = %v, want %v", got, defaultCleanupInterval)
	}
	if got := NewSessionCleanupService(&countingSweeper{}, time.Minute).interval; got != time.Minute {
		t.Errorf("interval = %v, want 1m", got)
	}
}

func TestSessionCleanupService_SweepsUntilCancelled(t *testing.T) {
	// A failing sweep must not stop the loop.
	sweeper := &countingSweeper{err: errors.New("disk full")}
	svc := NewSessionCleanupService(sweeper, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for sweeper.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d sweeps", sweeper.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestSessionCleanupService_RemovesExpired(t *testing.T) {
	store := auth.NewMemorySessionStore()
	ctx := context.Background()

	live, err := auth.NewSession("u1", auth.ProviderPhone, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	stale, err := auth.NewSession("u2", auth.ProviderPhone, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	for _, s := range []*auth.Session{live, stale} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	NewSessionCleanupService(store, time.Minute).sweep(ctx)

	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if _, err := store.Get(ctx, live.ID); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}
