// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package logging

import (
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Suppression is a process-wide filter that drops log events whose message
// contains one of a set of substrings. Nothing is installed at package load;
// callers opt in with EnableSuppression and must pair it with
// DisableSuppression, so tests can toggle it deterministically.
type suppressionHook struct {
	patterns []string
	dropped  *atomic.Int64
}

func (h suppressionHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level >= zerolog.FatalLevel {
		return
	}
	for _, p := range h.patterns {
		if strings.Contains(msg, p) {
			h.dropped.Add(1)
			e.Discard()
			return
		}
	}
}

var (
	// suppression is nil while the facility is disabled. Guarded by mu.
	suppression *suppressionHook
	dropped     atomic.Int64
)

// EnableSuppression installs the filter on the global logger. Calling it
// again replaces the pattern set. Empty patterns are ignored.
func EnableSuppression(patterns ...string) {
	clean := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	suppression = &suppressionHook{patterns: clean, dropped: &dropped}
	log = withHooks(base)
}

// DisableSuppression removes the filter and resets the dropped counter.
func DisableSuppression() {
	mu.Lock()
	defer mu.Unlock()
	suppression = nil
	dropped.Store(0)
	log = withHooks(base)
}

// SuppressionEnabled reports whether a filter is installed.
func SuppressionEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return suppression != nil
}

// SuppressedCount returns how many events were dropped since the filter was
// last enabled.
func SuppressedCount() int64 {
	return dropped.Load()
}

// withHooks must be called with mu held.
//
//nolint:gocritic // zerolog.Logger is passed by value by design of the library
func withHooks(l zerolog.Logger) zerolog.Logger {
	if suppression == nil {
		return l
	}
	return l.Hook(*suppression)
}
