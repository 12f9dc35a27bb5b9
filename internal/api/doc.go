// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Package api implements the Mix HTTP surface on a chi router.
//
// Route groups:
//
//	/health, /api/health, /api/health/ready   health checks, bare JSON
//	/api/auth/*                               phone and Google sign-in, session cookie
//	/api/profile, /api/discover, /api/matches end-user API, session required
//	/api/reports                              user reports, session required
//	/api/admin/*                              back office, bearer token + Casbin RBAC
//	/ws                                       realtime socket
//	/metrics                                  Prometheus
//	/*                                        SPA assets with index.html fallback
//
// Every /api response except the health checks uses the models.APIResponse
// envelope written through ResponseWriter:
//
//	{"status":"error","data":null,"metadata":{...},"error":{"code":"NOT_FOUND","message":"Match not found"}}
//
// Writes that other users must see in real time (matches, unmatches,
// messages, bans) are published on the event bus after they are stored. A
// failed publish is logged and does not fail the request.
package api
