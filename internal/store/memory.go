// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/mix/internal/metrics"
	"github.com/tomtom215/mix/internal/models"
)

const backendMemory = "memory"

type swipeKey struct{ swiper, target string }

// Memory is a Store held in process memory. Values are copied on the way in
// and out so callers never share state with the store.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	swipes   map[swipeKey]*models.Swipe
	matches  map[string]*models.Match
	pairs    map[swipeKey]string
	messages map[string][]*models.Message
	reports  map[string]*models.Report
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*models.User),
		swipes:   make(map[swipeKey]*models.Swipe),
		matches:  make(map[string]*models.Match),
		pairs:    make(map[swipeKey]string),
		messages: make(map[string][]*models.Message),
		reports:  make(map[string]*models.Report),
	}
}

// observe is deferred with a pointer to the named error result.
func observe(op string, start time.Time, err *error) {
	metrics.RecordStoreQuery(backendMemory, op, time.Since(start), *err)
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Photos = append([]string(nil), u.Photos...)
	c.Interests = append([]string(nil), u.Interests...)
	return &c
}

func copyMatch(m *models.Match) *models.Match {
	c := *m
	if m.UnmatchedAt != nil {
		t := *m.UnmatchedAt
		c.UnmatchedAt = &t
	}
	return &c
}

func copyReport(r *models.Report) *models.Report {
	c := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

func copyMessage(m *models.Message) *models.Message {
	c := *m
	return &c
}

// uniqueTakenLocked reports whether another user already owns u's phone or
// Google subject.
func (s *Memory) uniqueTakenLocked(u *models.User) bool {
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if u.PhoneNumber != "" && other.PhoneNumber == u.PhoneNumber {
			return true
		}
		if u.GoogleSub != "" && other.GoogleSub == u.GoogleSub {
			return true
		}
	}
	return false
}

func (s *Memory) CreateUser(_ context.Context, u *models.User) (err error) {
	defer observe("create_user", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, ok := s.users[u.ID]; ok || s.uniqueTakenLocked(u) {
		return ErrConflict
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *Memory) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Memory) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) GetUserByPhone(_ context.Context, phone string) (*models.User, error) {
	if phone == "" {
		return nil, ErrNotFound
	}
	return s.findUser(func(u *models.User) bool { return u.PhoneNumber == phone })
}

func (s *Memory) GetUserByGoogleSub(_ context.Context, sub string) (*models.User, error) {
	if sub == "" {
		return nil, ErrNotFound
	}
	return s.findUser(func(u *models.User) bool { return u.GoogleSub == sub })
}

func (s *Memory) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	if s.uniqueTakenLocked(u) {
		return ErrConflict
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

// DeleteUser removes the user along with every swipe, match, message and
// report that references them.
func (s *Memory) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)

	for k := range s.swipes {
		if k.swiper == id || k.target == id {
			delete(s.swipes, k)
		}
	}
	for mid, m := range s.matches {
		if m.Has(id) {
			delete(s.matches, mid)
			delete(s.pairs, swipeKey{m.UserAID, m.UserBID})
			delete(s.messages, mid)
		}
	}
	for rid, r := range s.reports {
		if r.ReporterID == id || r.ReportedUserID == id {
			delete(s.reports, rid)
		}
	}
	return nil
}

func sortUsersNewestFirst(users []*models.User) {
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + ClampLimit(limit)
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (s *Memory) ListUsers(_ context.Context, limit, offset int) ([]*models.User, int, error) {
	s.mu.RLock()
	all := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, copyUser(u))
	}
	s.mu.RUnlock()

	sortUsersNewestFirst(all)
	return page(all, limit, offset), len(all), nil
}

func (s *Memory) DiscoverUsers(_ context.Context, viewerID string, limit int) ([]*models.User, error) {
	s.mu.RLock()
	var out []*models.User
	for id, u := range s.users {
		if id == viewerID || !u.Onboarded || u.Status != models.UserStatusActive {
			continue
		}
		if _, swiped := s.swipes[swipeKey{viewerID, id}]; swiped {
			continue
		}
		out = append(out, copyUser(u))
	}
	s.mu.RUnlock()

	sortUsersNewestFirst(out)
	if limit = ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []*models.User{}
	}
	return out, nil
}

func (s *Memory) RecordSwipe(_ context.Context, sw *models.Swipe) (m *models.Match, err error) {
	defer observe("record_swipe", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[sw.SwiperID]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := s.users[sw.TargetID]; !ok {
		return nil, ErrNotFound
	}
	key := swipeKey{sw.SwiperID, sw.TargetID}
	if _, ok := s.swipes[key]; ok {
		return nil, ErrConflict
	}
	if sw.ID == "" {
		sw.ID = uuid.NewString()
	}
	stored := *sw
	s.swipes[key] = &stored

	if !sw.Action.Positive() {
		return nil, nil
	}
	reverse, ok := s.swipes[swipeKey{sw.TargetID, sw.SwiperID}]
	if !ok || !reverse.Action.Positive() {
		return nil, nil
	}

	a, b := models.OrderedPair(sw.SwiperID, sw.TargetID)
	if _, exists := s.pairs[swipeKey{a, b}]; exists {
		return nil, nil
	}
	match := &models.Match{
		ID:        uuid.NewString(),
		UserAID:   a,
		UserBID:   b,
		Status:    models.MatchStatusActive,
		CreatedAt: sw.CreatedAt,
	}
	s.matches[match.ID] = match
	s.pairs[swipeKey{a, b}] = match.ID
	return copyMatch(match), nil
}

func (s *Memory) GetMatch(_ context.Context, id string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyMatch(m), nil
}

func sortMatchesNewestFirst(ms []*models.Match) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].CreatedAt.After(ms[j].CreatedAt)
		}
		return ms[i].ID < ms[j].ID
	})
}

func (s *Memory) ListMatchesForUser(_ context.Context, userID string) ([]*models.Match, error) {
	s.mu.RLock()
	out := []*models.Match{}
	for _, m := range s.matches {
		if m.Has(userID) && m.Active() {
			out = append(out, copyMatch(m))
		}
	}
	s.mu.RUnlock()
	sortMatchesNewestFirst(out)
	return out, nil
}

func (s *Memory) ListMatches(_ context.Context, limit, offset int) ([]*models.Match, int, error) {
	s.mu.RLock()
	all := make([]*models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		all = append(all, copyMatch(m))
	}
	s.mu.RUnlock()
	sortMatchesNewestFirst(all)
	return page(all, limit, offset), len(all), nil
}

func (s *Memory) Unmatch(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return ErrNotFound
	}
	if !m.Active() {
		return nil
	}
	m.Status = models.MatchStatusUnmatched
	m.UnmatchedAt = &at
	return nil
}

func (s *Memory) CreateMessage(_ context.Context, msg *models.Message) (err error) {
	defer observe("create_message", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[msg.MatchID]
	if !ok {
		return ErrNotFound
	}
	if !match.Active() {
		return fmt.Errorf("%w: match %s is not active", ErrConflict, msg.MatchID)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	// Keep (created_at, id) order; senders stamp CreatedAt before the lock.
	msgs := s.messages[msg.MatchID]
	i := sort.Search(len(msgs), func(i int) bool { return messageBefore(msg, msgs[i]) })
	msgs = append(msgs, nil)
	copy(msgs[i+1:], msgs[i:])
	msgs[i] = copyMessage(msg)
	s.messages[msg.MatchID] = msgs
	return nil
}

func messageBefore(a, b *models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// ListMessages relies on CreateMessage keeping each match's slice sorted.
func (s *Memory) ListMessages(_ context.Context, matchID string, before time.Time, limit int) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[matchID]
	end := len(msgs)
	if !before.IsZero() {
		end = sort.Search(len(msgs), func(i int) bool { return !msgs[i].CreatedAt.Before(before) })
	}
	start := end - ClampLimit(limit)
	if start < 0 {
		start = 0
	}
	out := make([]*models.Message, 0, end-start)
	for _, m := range msgs[start:end] {
		out = append(out, copyMessage(m))
	}
	return out, nil
}

func (s *Memory) LastMessage(_ context.Context, matchID string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[matchID]
	if len(msgs) == 0 {
		return nil, ErrNotFound
	}
	return copyMessage(msgs[len(msgs)-1]), nil
}

func (s *Memory) CreateReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[r.ReportedUserID]; !ok {
		return ErrNotFound
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.reports[r.ID] = copyReport(r)
	return nil
}

func (s *Memory) GetReport(_ context.Context, id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyReport(r), nil
}

func (s *Memory) ListReports(_ context.Context, status models.ReportStatus) ([]*models.Report, error) {
	s.mu.RLock()
	out := []*models.Report{}
	for _, r := range s.reports {
		if status == "" || r.Status == status {
			out = append(out, copyReport(r))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Memory) UpdateReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[r.ID]; !ok {
		return ErrNotFound
	}
	s.reports[r.ID] = copyReport(r)
	return nil
}

func (s *Memory) Stats(_ context.Context) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &models.Stats{Users: len(s.users), Matches: len(s.matches)}
	for _, u := range s.users {
		switch u.Status {
		case models.UserStatusActive:
			st.ActiveUsers++
		case models.UserStatusBanned:
			st.BannedUsers++
		}
		if u.Onboarded {
			st.Onboarded++
		}
	}
	for _, msgs := range s.messages {
		st.Messages += len(msgs)
	}
	for _, r := range s.reports {
		if r.Status == models.ReportStatusOpen {
			st.OpenReports++
		}
	}
	return st, nil
}

func (s *Memory) Ping(context.Context) error { return nil }

func (s *Memory) Close() error { return nil }
