// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package realtime

import (
	"math"
	"time"
)

// DefaultReconnectDelay is the wait between an unexpected close and the
// next attempt.
const DefaultReconnectDelay = 3 * time.Second

// ReconnectPolicy decides whether and when a closed connection is retried.
// The zero value retries forever every DefaultReconnectDelay.
type ReconnectPolicy struct {
	// Delay before the first retry. Zero means DefaultReconnectDelay.
	Delay time.Duration

	// MaxAttempts caps consecutive retries. Zero is unlimited.
	MaxAttempts int

	// BackoffMultiplier grows the delay per attempt; 1 or less keeps it fixed.
	BackoffMultiplier float64

	// MaxDelay caps a growing delay. Zero is no cap.
	MaxDelay time.Duration
}

// DefaultReconnectPolicy retries forever with a fixed 3s delay.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		Delay:             DefaultReconnectDelay,
		BackoffMultiplier: 1,
	}
}

// NextDelay returns the wait before retry number attempt (1-based) and
// whether that retry is allowed at all. The count resets on every
// successful open.
func (p ReconnectPolicy) NextDelay(attempt int) (time.Duration, bool) {
	if attempt < 1 {
		attempt = 1
	}
	if p.MaxAttempts > 0 && attempt > p.MaxAttempts {
		return 0, false
	}

	delay := p.Delay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	if p.BackoffMultiplier > 1 && attempt > 1 {
		grown := float64(delay) * math.Pow(p.BackoffMultiplier, float64(attempt-1))
		if grown >= float64(math.MaxInt64) {
			delay = time.Duration(math.MaxInt64)
		} else {
			delay = time.Duration(grown)
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay, true
}
