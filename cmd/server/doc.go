// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

/*
Command server runs the Mix API, the realtime /ws endpoint and the SPA.

# Process layout

	mix
	├── data-layer
	│   ├── session-cleanup
	│   └── audit-logger
	├── messaging-layer
	│   ├── websocket-hub
	│   ├── event-forwarder
	│   └── wal-replayer        (EVENTS_WAL_PATH set)
	└── api-layer
	    └── http-server

Startup order:

 1. Configuration (koanf: defaults, config.yaml, environment)
 2. Logging (zerolog)
 3. Store: Postgres when DATABASE_URL is set, in-memory otherwise
 4. Sessions: signed mix.session cookie over a memory or Badger store
 5. Google verifier, admin authenticator, JWT manager and Casbin enforcer
 6. Event bus (memory, nats or embedded) with optional WAL, websocket hub, audit trail
 7. Router and HTTP server
 8. Supervisor tree, until SIGINT or SIGTERM

# Environment

	PORT=5000                   # HTTP port
	HOST=0.0.0.0
	NODE_ENV=development        # development, production or test
	SESSION_SECRET=<32+ chars>  # required in production
	DATABASE_URL=postgres://... # optional; in-memory store when unset
	VITE_GOOGLE_CLIENT_ID=...   # enables Google sign-in
	ADMIN_USERNAME=admin        # enables /api/admin
	ADMIN_PASSWORD=<password or bcrypt hash>
	EVENTS_BACKEND=memory       # memory, nats or embedded
	EVENTS_WAL_PATH=data/wal    # keep events that fail to publish
	AUDIT_RETENTION=2160h       # how long back-office actions are kept
	STATIC_DIR=dist/public

See internal/config for the full list.
*/
package main
