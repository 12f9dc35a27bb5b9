// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package audit

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	EventTypeAdminLogin      EventType = "admin.login"
	EventTypeUserBanned      EventType = "user.banned"
	EventTypeUserReinstated  EventType = "user.reinstated"
	EventTypeUserDeleted     EventType = "user.deleted"
	EventTypeReportResolved  EventType = "report.resolved"
	EventTypeReportDismissed EventType = "report.dismissed"
)

// Severity indicates how closely an event deserves a second look.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one entry of the trail.
type Event struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        EventType       `json:"type"`
	Severity    Severity        `json:"severity"`
	Outcome     Outcome         `json:"outcome"`
	Actor       Actor           `json:"actor"`
	Target      *Target         `json:"target,omitempty"`
	Source      Source          `json:"source"`
	Description string          `json:"description,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	RequestID   string          `json:"requestId,omitempty"`
}

// Actor is the back-office account that acted. Role is empty for failed
// sign-ins.
type Actor struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Target is the object of an action, e.g. {user, <id>}.
type Target struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type Source struct {
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent,omitempty"`
}

// SourceFromRequest reads the client address. RemoteAddr has already been
// rewritten by the RealIP middleware when the server sits behind a proxy.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return Source{IPAddress: ip, UserAgent: r.UserAgent()}
}

// Store persists events.
type Store interface {
	Save(ctx context.Context, event *Event) error

	// Query returns matching events newest first, paged by filter.Limit and
	// filter.Offset, together with the total number of matches.
	Query(ctx context.Context, filter QueryFilter) ([]Event, int, error)

	// Delete removes events older than the cutoff.
	Delete(ctx context.Context, olderThan time.Time) (int, error)
}

// QueryFilter narrows a Query. Zero fields match everything.
type QueryFilter struct {
	Types    []EventType
	Actor    string
	TargetID string
	Since    time.Time
	Limit    int
	Offset   int
}

// DefaultQueryLimit applies when QueryFilter.Limit is zero.
const DefaultQueryLimit = 100

func (f *QueryFilter) matches(e *Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Actor != "" && e.Actor.Name != f.Actor {
		return false
	}
	if f.TargetID != "" && (e.Target == nil || e.Target.ID != f.TargetID) {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
