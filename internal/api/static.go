// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/tomtom215/mix/internal/logging"
)

const (
	cacheImmutable  = "public, max-age=31536000, immutable"
	cacheRevalidate = "no-cache"
	cacheNever      = "no-store"
)

// staticHandler serves the built SPA. Paths that are not files get
// index.html so client-side routes survive a reload.
type staticHandler struct {
	root       http.FileSystem
	production bool
}

func newStaticHandler(dir string, production bool) *staticHandler {
	return &staticHandler{root: http.Dir(dir), production: production}
}

// cacheControl picks the policy for a served file. In production the
// bundler's hashed output under /assets/ never changes; everything else is
// revalidated. Development never caches.
func (s *staticHandler) cacheControl(name string) string {
	if !s.production {
		return cacheNever
	}
	if strings.HasPrefix(name, "/assets/") {
		return cacheImmutable
	}
	return cacheRevalidate
}

func (s *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if strings.HasPrefix(name, "/api/") || name == "/api" {
		writeNotFound(w, r)
		return
	}

	if name != "/" && s.serveFile(w, r, name) {
		return
	}
	if !s.serveFile(w, r, "/index.html") {
		http.NotFound(w, r)
	}
}

// serveFile writes name when it is a regular file and reports whether it did.
func (s *staticHandler) serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := s.root.Open(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Ctx(r.Context()).Warn().Err(err).Str("path", name).Msg("Static file open failed")
		}
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	w.Header().Set("Cache-Control", s.cacheControl(name))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
