// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

/*
Package wal keeps domain events that could not be published, so realtime
notifications survive a NATS outage or a tripped circuit breaker.

	Handler -> DurablePublisher.Publish
	              |
	              +-- WAL.Write (BadgerDB, pending:<uuidv7>)
	              +-- bus.Publish ok?  -> WAL.Confirm (entry deleted)
	                               no  -> WAL.RecordFailure, left pending

	Replayer (supervised) every Interval:
	    WAL.Pending -> bus.Publish -> Confirm, or RecordFailure,
	                                  or Delete after MaxAttempts

Entry keys are UUIDv7, so pending entries replay oldest first. Stored
state stays authoritative; the log only carries the notification about it.

An empty Config.Path opens an in-memory database, which tests use.
*/
package wal
