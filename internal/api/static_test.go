// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/mix/internal/config"
)

func writeSPA(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"index.html":              "<!doctype html><title>Mix</title>",
		"favicon.svg":             "<svg/>",
		"assets/index-3f9a1c.js":  "console.log('mix')",
		"assets/index-77be02.css": "body{}",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestStatic_CacheHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env       string
		path      string
		wantCache string
		wantBody  string
	}{
		{config.EnvProduction, "/assets/index-3f9a1c.js", cacheImmutable, "console.log"},
		{config.EnvProduction, "/favicon.svg", cacheRevalidate, "<svg/>"},
		{config.EnvProduction, "/", cacheRevalidate, "<title>Mix</title>"},
		{config.EnvProduction, "/matches/abc", cacheRevalidate, "<title>Mix</title>"},
		{config.EnvProduction, "/assets/missing.js", cacheRevalidate, "<title>Mix</title>"},
		{config.EnvDevelopment, "/assets/index-3f9a1c.js", cacheNever, "console.log"},
		{config.EnvDevelopment, "/onboarding", cacheNever, "<title>Mix</title>"},
	}
	for _, tt := range tests {
		t.Run(tt.env+tt.path, func(t *testing.T) {
			ts := newTestServer(t, func(c *config.Config) { c.Server.Environment = tt.env })
			writeSPA(t, ts.cfg.Server.StaticDir)

			rec := ts.do(http.MethodGet, tt.path, nil)
			expectStatus(t, rec, http.StatusOK)
			if got := rec.Header().Get("Cache-Control"); got != tt.wantCache {
				t.Errorf("Cache-Control = %q, want %q", got, tt.wantCache)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestStatic_NoBuild(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/anything", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without index.html", rec.Code)
	}
}

func TestStatic_NoTraversal(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	writeSPA(t, ts.cfg.Server.StaticDir)
	secret := filepath.Join(filepath.Dir(ts.cfg.Server.StaticDir), "secret.txt")
	if err := os.WriteFile(secret, []byte("top secret"), 0o600); err != nil {
		t.Fatal(err)
	}

	rec := ts.do(http.MethodGet, "/../secret.txt", nil)
	if strings.Contains(rec.Body.String(), "top secret") {
		t.Error("path traversal served a file outside the static dir")
	}
}
