// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

/*
Package realtime is the client side of the /ws channel: a Binder that keeps
one WebSocket open for as long as its owner is mounted and reconnects after
unexpected closes.

	b := realtime.NewBinder(realtime.Config{PageURL: "https://mix.example.com/app"})
	b.OnMessage(func(env realtime.Envelope) {
	    fmt.Println(env.Type)
	})
	b.Mount()
	defer b.Unmount()

	b.Send(realtime.Envelope{Type: "ping"})

# Connection lifecycle

	Disconnected ──Mount/Connect──▶ Connecting ──open──▶ Connected
	      ▲                                                  │
	      └──────────────── close/error ◀───────────────────┘
	      │
	      └── ReconnectPolicy delay (one timer) ──▶ Connecting

The endpoint is derived from the page URL: https pages use wss, http pages
use ws, and the path is always /ws on the page's host.

# Guarantees

  - At most one transport and one pending reconnect timer per Binder.
  - Unmount is terminal. It cancels a pending retry and closes the transport;
    nothing reopens afterwards.
  - Callbacks from a transport that has been replaced or closed are ignored.
  - Frames that are not a JSON object with a type are dropped without
    reaching OnMessage.
  - Send while not connected writes nothing and reports nothing.

No error ever reaches the caller. Failures are logged through the logging
package and counted in mix_realtime_dropped_total and
mix_realtime_reconnects_total.
*/
package realtime
