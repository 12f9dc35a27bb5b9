// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Package testinfra starts throwaway containers for integration tests.
//
// Everything here is behind the integration build tag and skips cleanly when
// Docker is unavailable:
//
//	go test -tags integration ./internal/store/...
//
// StartPostgres returns a DSN for a fresh database, which the store package
// feeds to NewPostgres to run the same contract suite the memory store runs.
package testinfra
