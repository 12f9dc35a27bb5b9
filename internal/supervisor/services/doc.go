// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

/*
Package services adapts Mix server components to suture.Service.

	HTTPServerService      *http.Server; graceful Shutdown on cancel
	EventForwarderService  events.Forwarder over the bus subscriber
	SessionCleanupService  periodic auth.SessionStore.CleanupExpired

Each Serve returns ctx.Err() on a clean stop and a wrapped error when the
component fails, which tells the supervisor to restart it. Every service
implements fmt.Stringer so suture logs it by name.
*/
package services
