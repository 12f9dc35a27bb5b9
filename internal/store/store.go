// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Package store persists users, swipes, matches, messages and reports.
//
// Two implementations satisfy Store: Memory, used when no DATABASE_URL is
// configured, and Postgres on a pgx connection pool. Both return ErrNotFound
// and ErrConflict so callers can map outcomes without knowing the backend.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/mix/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a write collides with an existing row,
	// such as a second swipe on the same user or a reused phone number.
	ErrConflict = errors.New("store: conflict")
)

// Default and maximum page sizes applied by every listing.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampLimit applies DefaultLimit to non-positive values and caps at MaxLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Store is the persistence boundary of the server.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetUserByGoogleSub(ctx context.Context, sub string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error)

	// DiscoverUsers returns onboarded active users other than viewerID that
	// viewerID has not swiped yet, newest first.
	DiscoverUsers(ctx context.Context, viewerID string, limit int) ([]*models.User, error)

	// RecordSwipe stores s. When s is positive and the target already liked
	// the swiper, the new match is returned; otherwise the match is nil.
	// A repeated swipe on the same target returns ErrConflict.
	RecordSwipe(ctx context.Context, s *models.Swipe) (*models.Match, error)

	GetMatch(ctx context.Context, id string) (*models.Match, error)
	// ListMatchesForUser returns the user's active matches, newest first.
	ListMatchesForUser(ctx context.Context, userID string) ([]*models.Match, error)
	ListMatches(ctx context.Context, limit, offset int) ([]*models.Match, int, error)
	Unmatch(ctx context.Context, id string, at time.Time) error

	CreateMessage(ctx context.Context, m *models.Message) error
	// ListMessages returns up to limit messages older than before (all when
	// before is zero), in ascending time order.
	ListMessages(ctx context.Context, matchID string, before time.Time, limit int) ([]*models.Message, error)
	LastMessage(ctx context.Context, matchID string) (*models.Message, error)

	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	// ListReports filters by status unless it is empty, newest first.
	ListReports(ctx context.Context, status models.ReportStatus) ([]*models.Report, error)
	UpdateReport(ctx context.Context, r *models.Report) error

	Stats(ctx context.Context) (*models.Stats, error)
	Ping(ctx context.Context) error
	Close() error
}
