// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSuppressionDisabledByDefault(t *testing.T) {
	if SuppressionEnabled() {
		t.Fatal("suppression must not be active until enabled")
	}
}

func TestSuppressionDropsMatchingEvents(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(DefaultConfig())

	EnableSuppression("connection refused", "  ")
	defer DisableSuppression()

	Warn().Msg("dial tcp 127.0.0.1:1: connection refused")
	Info().Msg("still visible")

	out := buf.String()
	if strings.Contains(out, "connection refused") {
		t.Errorf("matching event was not suppressed: %s", out)
	}
	if !strings.Contains(out, "still visible") {
		t.Errorf("non-matching event was suppressed: %s", out)
	}
	if got := SuppressedCount(); got != 1 {
		t.Errorf("SuppressedCount() = %d, want 1", got)
	}
}

func TestDisableSuppressionRestoresOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(DefaultConfig())

	EnableSuppression("noisy")
	DisableSuppression()

	Info().Msg("noisy but allowed")

	if !strings.Contains(buf.String(), "noisy but allowed") {
		t.Errorf("event dropped after teardown: %s", buf.String())
	}
	if SuppressionEnabled() {
		t.Error("SuppressionEnabled() should be false after teardown")
	}
	if SuppressedCount() != 0 {
		t.Errorf("SuppressedCount() = %d after teardown, want 0", SuppressedCount())
	}
}

func TestSuppressionSurvivesReinit(t *testing.T) {
	EnableSuppression("secret-phrase")
	defer DisableSuppression()

	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(DefaultConfig())

	Error().Msg("contains secret-phrase")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got: %s", buf.String())
	}
}
