// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package audit

import (
	"context"
	"sync"
	"time"
)

const defaultMemoryCapacity = 10000

// MemoryStore keeps the most recent events in memory. Data is lost on
// restart.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	maxLen int
}

// NewMemoryStore holds up to maxLen events; zero means 10000.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = defaultMemoryCapacity
	}
	return &MemoryStore{
		events: make([]Event, 0, min(maxLen, 1024)),
		maxLen: maxLen,
	}
}

// Save appends the event. When full, the oldest tenth is evicted.
func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxLen {
		evict := max(s.maxLen/10, 1)
		s.events = append(s.events[:0], s.events[evict:]...)
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, int, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []Event{}
	total := 0
	for i := len(s.events) - 1; i >= 0; i-- {
		e := &s.events[i]
		if !filter.matches(e) {
			continue
		}
		if total >= filter.Offset && len(results) < limit {
			results = append(results, *e)
		}
		total++
	}
	return results, total, nil
}

// Delete relies on events being saved in timestamp order.
func (s *MemoryStore) Delete(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for n < len(s.events) && s.events[n].Timestamp.Before(olderThan) {
		n++
	}
	if n > 0 {
		s.events = append(s.events[:0], s.events[n:]...)
	}
	return n, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
