// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/mix/internal/config"
	"github.com/tomtom215/mix/internal/testinfra"
)

func TestPostgresStore(t *testing.T) {
	pg := testinfra.StartPostgres(t)

	newStore := func(t *testing.T) Store {
		t.Helper()
		ctx := context.Background()
		s, err := NewPostgres(ctx, config.DatabaseConfig{URL: pg.URL, MaxConns: 4, ConnectTimeout: 10 * time.Second})
		if err != nil {
			t.Fatalf("NewPostgres: %v", err)
		}
		// Subtests share one database; start each from empty tables.
		if _, err := s.pool.Exec(ctx, `TRUNCATE users, swipes, matches, messages, reports CASCADE`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	runStoreSuite(t, newStore)
}

func TestPostgres_BootstrapIsIdempotent(t *testing.T) {
	pg := testinfra.StartPostgres(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s, err := NewPostgres(ctx, config.DatabaseConfig{URL: pg.URL})
		if err != nil {
			t.Fatalf("NewPostgres run %d: %v", i, err)
		}
		_ = s.Close()
	}
}
