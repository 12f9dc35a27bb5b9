// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

/*
Package events carries domain events from HTTP handlers to the realtime hub.

Handlers publish after the write is committed:

	bus.Publish(ctx, events.TopicMessageCreated, events.MessageCreated{...})

A watermill router built by Forwarder consumes every topic and turns each
event into socket messages through the hub. With the memory backend this is
an in-process go channel. With the nats and embedded backends events cross
core NATS, so several server instances behind a load balancer each deliver
to the sockets they hold.

Publishing is best effort from the caller's point of view: a failure is
logged and counted but never undoes the write that produced the event.
*/
package events
