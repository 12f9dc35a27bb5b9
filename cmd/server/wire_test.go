// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tomtom215/mix/internal/auth"
	"github.com/tomtom215/mix/internal/config"
	"github.com/tomtom215/mix/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Environment: config.EnvTest},
		Session: config.SessionConfig{
			Secret: "wire-test-session-secret-0123456789",
			Store:  "memory",
		},
	}
}

func TestOpenStore_MemoryWithoutDatabaseURL(t *testing.T) {
	st, err := openStore(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer st.Close()
	if _, ok := st.(*store.Memory); !ok {
		t.Errorf("openStore() = %T, want *store.Memory", st)
	}
}

func TestOpenStore_BadDatabaseURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.URL = "postgres://%zz"
	if _, err := openStore(context.Background(), cfg); err == nil {
		t.Error("openStore() should reject an unparsable DATABASE_URL")
	}
}

func TestNewSessionManager(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		m, err := newSessionManager(testConfig(t))
		if err != nil {
			t.Fatalf("newSessionManager() error = %v", err)
		}
		if _, ok := m.Store().(*auth.MemorySessionStore); !ok {
			t.Errorf("store = %T", m.Store())
		}
	})

	t.Run("badger", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Session.Store = "badger"
		cfg.Session.StorePath = filepath.Join(t.TempDir(), "sessions")
		m, err := newSessionManager(cfg)
		if err != nil {
			t.Fatalf("newSessionManager() error = %v", err)
		}
		defer m.Store().Close()
		if _, ok := m.Store().(*auth.BadgerSessionStore); !ok {
			t.Errorf("store = %T", m.Store())
		}
	})

	t.Run("unknown store", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Session.Store = "redis"
		if _, err := newSessionManager(cfg); err == nil {
			t.Error("expected error for unknown store")
		}
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Session.Secret = ""
		if _, err := newSessionManager(cfg); err == nil {
			t.Error("expected error without a session secret")
		}
	})
}

func TestNewIdentity(t *testing.T) {
	cfg := testConfig(t)
	id, err := newIdentity(cfg)
	if err != nil {
		t.Fatalf("newIdentity() error = %v", err)
	}
	if id.admin != nil {
		t.Error("admin enabled without credentials")
	}
	if id.google.Enabled() {
		t.Error("google enabled without a client id")
	}
	if id.jwt == nil || id.enforcer == nil {
		t.Fatal("jwt manager and enforcer are always built")
	}

	cfg.Auth.AdminUsername = "root"
	cfg.Auth.AdminPassword = "correct horse battery staple"
	cfg.Auth.GoogleClientID = "client.apps.googleusercontent.com"
	id, err = newIdentity(cfg)
	if err != nil {
		t.Fatalf("newIdentity() error = %v", err)
	}
	if id.admin == nil || id.admin.Username() != "root" {
		t.Error("admin not enabled")
	}
	if !id.google.Enabled() || id.google.ClientID() != cfg.Auth.GoogleClientID {
		t.Error("google not enabled")
	}
}
