// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

/*
Package websocket is the server side of the /ws realtime channel.

Every frame in either direction is a JSON object {"type": ..., "data": ...}.
The hub answers "ping" with {"type":"pong","data":null} itself; every other
inbound type goes to the handler installed with SetInboundHandler (the API
uses it to relay "typing" between matched users).

Outbound traffic is either broadcast to every socket or addressed to one user
with SendToUser, which reaches all of that user's open sockets:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	hub.SendToUser(matchedUserID, websocket.MessageTypeNewMatch, matchView)

Each client runs a read pump and a write pump. Inbound frames are rate limited
per connection; malformed frames and frames over the limit are dropped and
counted in mix_ws_dropped_total. A client whose send buffer fills up is
disconnected rather than allowed to stall the hub.
*/
package websocket
