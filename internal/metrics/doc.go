// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Package metrics defines the Prometheus collectors exported at /metrics.
//
// Collectors are package-level and registered with the default registry
// through promauto. Small Record* helpers keep label handling in one place.
package metrics
