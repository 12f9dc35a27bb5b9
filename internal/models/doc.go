// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

/*
Package models defines the domain types shared by the store, the event bus and
the HTTP API.

JSON field names are camelCase to match what the SPA sends and reads. Types
that carry data other users must not see (phone numbers, Google subjects)
expose a PublicProfile projection for discovery and match listings.

The APIResponse envelope wraps every JSON body the API returns except the
health checks:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "2026-01-02T15:04:05Z"}
	}
*/
package models
