// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Package audit keeps a trail of back-office actions: admin sign-ins,
// bans and reinstatements, account deletions and report decisions.
//
// # Architecture
//
//	Handler -> Logger.Log() -> buffer (chan) -> Logger.Serve -> Store
//	               |                                 |
//	          non-blocking                 supervised goroutine,
//	                                       prunes past Retention
//
// Log never blocks a request. When the buffer is full the event is dropped
// and counted in mix_audit_dropped_total. Every stored event is also written
// to the application log at info level with the "audit" component, so the
// trail survives a restart of the in-memory store wherever logs are shipped.
//
// # Usage
//
//	trail := audit.NewLogger(audit.NewMemoryStore(0), audit.DefaultConfig())
//	tree.AddDataService(trail)
//
//	trail.Log(&audit.Event{
//	    Type:    audit.EventTypeUserBanned,
//	    Outcome: audit.OutcomeSuccess,
//	    Actor:   audit.Actor{Name: "root", Role: "admin"},
//	    Target:  &audit.Target{Type: "user", ID: id},
//	})
//
// A nil *Logger is valid and discards everything, so handlers do not need
// to check whether auditing is configured.
package audit
