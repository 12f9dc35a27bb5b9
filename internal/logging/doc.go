// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Package logging provides the process-wide zerolog logger for Mix.
//
// Every package logs through the helpers here instead of holding its own
// logger, so level and format are controlled in one place:
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("Swipe rejected")
//
// # Context
//
// The HTTP middleware stores a request id, a short correlation id and, once a
// session is resolved, the user id in the request context. Ctx picks all three
// up so handler logs can be joined with access logs.
//
// # slog bridge
//
// NewSlogLogger exposes the same logger as a *slog.Logger for libraries that
// only accept slog: the suture supervisor (through sutureslog) and watermill.
//
// # Suppression
//
// EnableSuppression and DisableSuppression install and remove a process-wide
// filter that drops events by message substring. It is never active unless a
// caller enables it. The mixws CLI uses it to hide the expected dial
// failures while the server is restarting.
//
// # Redaction
//
// RedactPhone, RedactEmail and RedactToken mask personal data and credentials
// before they reach a log line.
package logging
