// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package audit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func seed(t *testing.T, s *MemoryStore) time.Time {
	t.Helper()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := []struct {
		typ    EventType
		actor  string
		target string
	}{
		{EventTypeAdminLogin, "root", ""},
		{EventTypeUserBanned, "root", "u1"},
		{EventTypeReportResolved, "mod", "r1"},
		{EventTypeUserReinstated, "root", "u1"},
		{EventTypeAdminLogin, "mod", ""},
	}
	for i, row := range rows {
		e := &Event{
			ID:        fmt.Sprintf("e%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Type:      row.typ,
			Actor:     Actor{Name: row.actor},
		}
		if row.target != "" {
			e.Target = &Target{ID: row.target}
		}
		if err := s.Save(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}
	return base
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestMemoryStore_Query(t *testing.T) {
	s := NewMemoryStore(0)
	base := seed(t, s)

	tests := []struct {
		name      string
		filter    QueryFilter
		wantIDs   string
		wantTotal int
	}{
		{"all newest first", QueryFilter{}, "[e4 e3 e2 e1 e0]", 5},
		{"by type", QueryFilter{Types: []EventType{EventTypeAdminLogin}}, "[e4 e0]", 2},
		{"by actor", QueryFilter{Actor: "mod"}, "[e4 e2]", 2},
		{"by target", QueryFilter{TargetID: "u1"}, "[e3 e1]", 2},
		{"since", QueryFilter{Since: base.Add(3 * time.Hour)}, "[e4 e3]", 2},
		{"paged", QueryFilter{Limit: 2, Offset: 1}, "[e3 e2]", 5},
		{"offset past end", QueryFilter{Offset: 10}, "[]", 5},
		{"no match", QueryFilter{Actor: "nobody"}, "[]", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, total, err := s.Query(context.Background(), tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if got := fmt.Sprint(ids(events)); got != tt.wantIDs {
				t.Errorf("ids = %s, want %s", got, tt.wantIDs)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	s := NewMemoryStore(10)
	for i := 0; i < 11; i++ {
		_ = s.Save(context.Background(), &Event{ID: fmt.Sprintf("e%d", i)})
	}
	if s.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", s.Len())
	}
	events, _, _ := s.Query(context.Background(), QueryFilter{Limit: 100})
	if last := events[len(events)-1].ID; last != "e1" {
		t.Errorf("oldest kept = %s, want e1", last)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore(0)
	base := seed(t, s)

	n, err := s.Delete(context.Background(), base.Add(2*time.Hour))
	if err != nil || n != 2 {
		t.Fatalf("Delete() = %d, %v; want 2", n, err)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}
