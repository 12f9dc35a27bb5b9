// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Package middleware holds chi-compatible HTTP middleware shared by the API
// router: request ids, request logging and Prometheus instrumentation.
//
// Order matters. RequestID must run first so the logger and metrics see the
// ids it stores:
//
//	r.Use(middleware.RequestID)
//	r.Use(middleware.RequestLogger)
//	r.Use(middleware.PrometheusMetrics)
//
// The response writers used here come from chi's middleware package and keep
// http.Hijacker, so /ws upgrades pass through unchanged.
package middleware
