// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package models

import "time"

type ReportStatus string

const (
	ReportStatusOpen      ReportStatus = "open"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusOpen, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}

// Report is a user-filed complaint reviewed by moderators.
type Report struct {
	ID             string       `json:"id"`
	ReporterID     string       `json:"reporterId"`
	ReportedUserID string       `json:"reportedUserId"`
	Reason         string       `json:"reason"`
	Status         ReportStatus `json:"status"`
	CreatedAt      time.Time    `json:"createdAt"`
	ResolvedAt     *time.Time   `json:"resolvedAt,omitempty"`
	ResolvedBy     string       `json:"resolvedBy,omitempty"`
}

// ReportRequest is the body of POST /api/reports.
type ReportRequest struct {
	ReportedUserID string `json:"reportedUserId" validate:"required,uuid"`
	Reason         string `json:"reason" validate:"required,min=3,max=500"`
}

// ReportUpdate is the body of PATCH /api/admin/reports/{id}.
type ReportUpdate struct {
	Status ReportStatus `json:"status" validate:"required,oneof=resolved dismissed"`
}

// UserStatusUpdate is the body of PATCH /api/admin/users/{id}.
type UserStatusUpdate struct {
	Status UserStatus `json:"status" validate:"required,oneof=active banned"`
}

// Stats backs the admin dashboard.
type Stats struct {
	Users       int `json:"users"`
	ActiveUsers int `json:"activeUsers"`
	BannedUsers int `json:"bannedUsers"`
	Onboarded   int `json:"onboarded"`
	Matches     int `json:"matches"`
	Messages    int `json:"messages"`
	OpenReports int `json:"openReports"`
	LiveSockets int `json:"liveSockets"`
}
