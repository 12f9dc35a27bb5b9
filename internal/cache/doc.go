// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Package cache provides a bounded LRU with per-entry expiry, used to
// recognize repeated keys such as redelivered event IDs.
//
//	seen := cache.NewLRU(10000, 10*time.Minute)
//	if seen.Seen(msg.UUID) {
//	    return nil // already handled
//	}
//
// Every operation is O(1). Expired entries are dropped lazily on access or
// in bulk by CleanupExpired; the least recently used entry is evicted when
// the capacity is reached.
package cache
