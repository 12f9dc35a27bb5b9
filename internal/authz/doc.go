// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Package authz authorizes back-office requests with Casbin RBAC.
//
// The model and a default policy are embedded. admin may do anything under
// /api/admin; moderator may read and resolve reports. AUTHZ_POLICY_PATH
// points at a replacement policy CSV with the same columns:
//
//	p, <role>, <path pattern>, <method regexp>
//	g, <role>, <inherited role>
package authz
