// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/mix/internal/config"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
	"github.com/tomtom215/mix/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const backendPostgres = "postgres"

// Postgres error codes mapped to sentinel errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Postgres is a Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects, verifies the connection and applies the bootstrap
// schema.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Postgres{pool: pool}
	if err := s.bootstrap(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logging.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("max_conns", poolCfg.MaxConns).
		Msg("postgres store ready")
	return s, nil
}

func (s *Postgres) bootstrap(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// observe records latency and errors. ErrNotFound is an expected outcome and
// is not counted as an error.
func (s *Postgres) observe(op string, start time.Time, err *error) {
	e := *err
	if errors.Is(e, ErrNotFound) || errors.Is(e, ErrConflict) {
		e = nil
	}
	metrics.RecordStoreQuery(backendPostgres, op, time.Since(start), e)
}

// mapError converts pgx outcomes into sentinel errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

const userColumns = `id, COALESCE(phone_number, ''), email, COALESCE(google_sub, ''), name,
	birth_date, gender, interested_in, bio, photos, interests, onboarded, status,
	created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var status string
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.Email, &u.GoogleSub, &u.Name,
		&u.BirthDate, &u.Gender, &u.InterestedIn, &u.Bio, &u.Photos, &u.Interests,
		&u.Onboarded, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	u.Status = models.UserStatus(status)
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()
	out := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateUser(ctx context.Context, u *models.User) (err error) {
	defer s.observe("create_user", time.Now(), &err)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, phone_number, email, google_sub, name, birth_date, gender,
			interested_in, bio, photos, interests, onboarded, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		u.ID, nullIfEmpty(u.PhoneNumber), u.Email, nullIfEmpty(u.GoogleSub), u.Name, u.BirthDate,
		u.Gender, u.InterestedIn, u.Bio, emptyIfNil(u.Photos), emptyIfNil(u.Interests),
		u.Onboarded, string(u.Status), u.CreatedAt, u.UpdatedAt)
	return mapError(err)
}

func (s *Postgres) GetUser(ctx context.Context, id string) (u *models.User, err error) {
	defer s.observe("get_user", time.Now(), &err)
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Postgres) GetUserByPhone(ctx context.Context, phone string) (u *models.User, err error) {
	defer s.observe("get_user_by_phone", time.Now(), &err)
	if phone == "" {
		return nil, ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone))
}

func (s *Postgres) GetUserByGoogleSub(ctx context.Context, sub string) (u *models.User, err error) {
	defer s.observe("get_user_by_google_sub", time.Now(), &err)
	if sub == "" {
		return nil, ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE google_sub = $1`, sub))
}

func (s *Postgres) UpdateUser(ctx context.Context, u *models.User) (err error) {
	defer s.observe("update_user", time.Now(), &err)
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET phone_number = $2, email = $3, google_sub = $4, name = $5,
			birth_date = $6, gender = $7, interested_in = $8, bio = $9, photos = $10,
			interests = $11, onboarded = $12, status = $13, updated_at = $14
		WHERE id = $1`,
		u.ID, nullIfEmpty(u.PhoneNumber), u.Email, nullIfEmpty(u.GoogleSub), u.Name, u.BirthDate,
		u.Gender, u.InterestedIn, u.Bio, emptyIfNil(u.Photos), emptyIfNil(u.Interests),
		u.Onboarded, string(u.Status), u.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser relies on ON DELETE CASCADE for dependent rows.
func (s *Postgres) DeleteUser(ctx context.Context, id string) (err error) {
	defer s.observe("delete_user", time.Now(), &err)
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) ListUsers(ctx context.Context, limit, offset int) (users []*models.User, total int, err error) {
	defer s.observe("list_users", time.Now(), &err)
	if offset < 0 {
		offset = 0
	}
	if err = s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users
		ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, ClampLimit(limit), offset)
	if err != nil {
		return nil, 0, mapError(err)
	}
	users, err = collectUsers(rows)
	return users, total, err
}

func (s *Postgres) DiscoverUsers(ctx context.Context, viewerID string, limit int) (users []*models.User, err error) {
	defer s.observe("discover_users", time.Now(), &err)
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users u
		WHERE u.onboarded AND u.status = 'active' AND u.id <> $1
		  AND NOT EXISTS (SELECT 1 FROM swipes s WHERE s.swiper_id = $1 AND s.target_id = u.id)
		ORDER BY u.created_at DESC, u.id
		LIMIT $2`, viewerID, ClampLimit(limit))
	if err != nil {
		return nil, mapError(err)
	}
	return collectUsers(rows)
}

// RecordSwipe serialises swipes on the same pair with a transaction-scoped
// advisory lock so two reciprocal likes always produce exactly one match.
func (s *Postgres) RecordSwipe(ctx context.Context, sw *models.Swipe) (match *models.Match, err error) {
	defer s.observe("record_swipe", time.Now(), &err)
	if sw.ID == "" {
		sw.ID = uuid.NewString()
	}
	a, b := models.OrderedPair(sw.SwiperID, sw.TargetID)

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, a+":"+b); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO swipes (id, swiper_id, target_id, action, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (swiper_id, target_id) DO NOTHING`,
			sw.ID, sw.SwiperID, sw.TargetID, string(sw.Action), sw.CreatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}
		if !sw.Action.Positive() {
			return nil
		}

		var reciprocated bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM swipes
				WHERE swiper_id = $1 AND target_id = $2 AND action IN ('like', 'superlike'))`,
			sw.TargetID, sw.SwiperID).Scan(&reciprocated); err != nil {
			return err
		}
		if !reciprocated {
			return nil
		}

		m := &models.Match{
			ID:        uuid.NewString(),
			UserAID:   a,
			UserBID:   b,
			Status:    models.MatchStatusActive,
			CreatedAt: sw.CreatedAt,
		}
		tag, err = tx.Exec(ctx, `
			INSERT INTO matches (id, user_a_id, user_b_id, status, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_a_id, user_b_id) DO NOTHING`,
			m.ID, m.UserAID, m.UserBID, string(m.Status), m.CreatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			match = m
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return match, nil
}

const matchColumns = `id, user_a_id, user_b_id, status, created_at, unmatched_at`

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	var status string
	if err := row.Scan(&m.ID, &m.UserAID, &m.UserBID, &status, &m.CreatedAt, &m.UnmatchedAt); err != nil {
		return nil, mapError(err)
	}
	m.Status = models.MatchStatus(status)
	return &m, nil
}

func collectMatches(rows pgx.Rows) ([]*models.Match, error) {
	defer rows.Close()
	out := []*models.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Postgres) GetMatch(ctx context.Context, id string) (m *models.Match, err error) {
	defer s.observe("get_match", time.Now(), &err)
	return scanMatch(s.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
}

func (s *Postgres) ListMatchesForUser(ctx context.Context, userID string) (ms []*models.Match, err error) {
	defer s.observe("list_matches_for_user", time.Now(), &err)
	rows, err := s.pool.Query(ctx, `SELECT `+matchColumns+` FROM matches
		WHERE (user_a_id = $1 OR user_b_id = $1) AND status = 'active'
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return collectMatches(rows)
}

func (s *Postgres) ListMatches(ctx context.Context, limit, offset int) (ms []*models.Match, total int, err error) {
	defer s.observe("list_matches", time.Now(), &err)
	if offset < 0 {
		offset = 0
	}
	if err = s.pool.QueryRow(ctx, `SELECT count(*) FROM matches`).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+matchColumns+` FROM matches
		ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, ClampLimit(limit), offset)
	if err != nil {
		return nil, 0, mapError(err)
	}
	ms, err = collectMatches(rows)
	return ms, total, err
}

// Unmatch is idempotent; an already unmatched pair keeps its first timestamp.
func (s *Postgres) Unmatch(ctx context.Context, id string, at time.Time) (err error) {
	defer s.observe("unmatch", time.Now(), &err)
	var exists bool
	err = s.pool.QueryRow(ctx, `
		WITH upd AS (
			UPDATE matches SET status = 'unmatched', unmatched_at = $2
			WHERE id = $1 AND status = 'active'
		)
		SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, id, at).Scan(&exists)
	if err != nil {
		return mapError(err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) CreateMessage(ctx context.Context, m *models.Message) (err error) {
	defer s.observe("create_message", time.Now(), &err)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	// FOR SHARE waits out a concurrent unmatch and rechecks the status.
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, match_id, sender_id, content, created_at)
		SELECT $1, id, $3, $4, $5 FROM matches
		WHERE id = $2 AND status = $6
		FOR SHARE`, m.ID, m.MatchID, m.SenderID, m.Content, m.CreatedAt, string(models.MatchStatusActive))
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, m.MatchID).Scan(&exists); err != nil {
		return mapError(err)
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%w: match %s is not active", ErrConflict, m.MatchID)
}

func collectMessages(rows pgx.Rows) ([]*models.Message, error) {
	defer rows.Close()
	out := []*models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (s *Postgres) ListMessages(ctx context.Context, matchID string, before time.Time, limit int) (msgs []*models.Message, err error) {
	defer s.observe("list_messages", time.Now(), &err)
	var beforeArg *time.Time
	if !before.IsZero() {
		beforeArg = &before
	}
	// Newest page first, then flipped to ascending order.
	rows, err := s.pool.Query(ctx, `
		SELECT id, match_id, sender_id, content, created_at FROM (
			SELECT id, match_id, sender_id, content, created_at FROM messages
			WHERE match_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) page ORDER BY created_at, id`, matchID, beforeArg, ClampLimit(limit))
	if err != nil {
		return nil, mapError(err)
	}
	return collectMessages(rows)
}

func (s *Postgres) LastMessage(ctx context.Context, matchID string) (m *models.Message, err error) {
	defer s.observe("last_message", time.Now(), &err)
	var msg models.Message
	err = s.pool.QueryRow(ctx, `
		SELECT id, match_id, sender_id, content, created_at FROM messages
		WHERE match_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, matchID).
		Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Content, &msg.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &msg, nil
}

const reportColumns = `id, reporter_id, reported_user_id, reason, status, created_at, resolved_at, resolved_by`

func scanReport(row pgx.Row) (*models.Report, error) {
	var r models.Report
	var status string
	if err := row.Scan(&r.ID, &r.ReporterID, &r.ReportedUserID, &r.Reason, &status,
		&r.CreatedAt, &r.ResolvedAt, &r.ResolvedBy); err != nil {
		return nil, mapError(err)
	}
	r.Status = models.ReportStatus(status)
	return &r, nil
}

func (s *Postgres) CreateReport(ctx context.Context, r *models.Report) (err error) {
	defer s.observe("create_report", time.Now(), &err)
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO reports (id, reporter_id, reported_user_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.ReporterID, r.ReportedUserID, r.Reason, string(r.Status), r.CreatedAt)
	return mapError(err)
}

func (s *Postgres) GetReport(ctx context.Context, id string) (r *models.Report, err error) {
	defer s.observe("get_report", time.Now(), &err)
	return scanReport(s.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
}

func (s *Postgres) ListReports(ctx context.Context, status models.ReportStatus) (reports []*models.Report, err error) {
	defer s.observe("list_reports", time.Now(), &err)
	rows, err := s.pool.Query(ctx, `SELECT `+reportColumns+` FROM reports
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC, id`, string(status))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	reports = []*models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *Postgres) UpdateReport(ctx context.Context, r *models.Report) (err error) {
	defer s.observe("update_report", time.Now(), &err)
	tag, err := s.pool.Exec(ctx, `
		UPDATE reports SET status = $2, resolved_at = $3, resolved_by = $4 WHERE id = $1`,
		r.ID, string(r.Status), r.ResolvedAt, r.ResolvedBy)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) Stats(ctx context.Context) (st *models.Stats, err error) {
	defer s.observe("stats", time.Now(), &err)
	st = &models.Stats{}
	err = s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM users WHERE status = 'active'),
			(SELECT count(*) FROM users WHERE status = 'banned'),
			(SELECT count(*) FROM users WHERE onboarded),
			(SELECT count(*) FROM matches),
			(SELECT count(*) FROM messages),
			(SELECT count(*) FROM reports WHERE status = 'open')`).
		Scan(&st.Users, &st.ActiveUsers, &st.BannedUsers, &st.Onboarded, &st.Matches, &st.Messages, &st.OpenReports)
	if err != nil {
		return nil, mapError(err)
	}
	return st, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
