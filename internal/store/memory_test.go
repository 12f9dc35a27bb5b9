// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package store

import (
	"context"
	"sync"
	"testing"

	"github.com/tomtom215/mix/internal/models"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemory() })
}

func TestMemory_ReturnsCopies(t *testing.T) {
	s := NewMemory()
	u := newUser(t, s, "+15555550100", base, true)
	u.Name = "mutated after create"

	got, _ := s.GetUser(context.Background(), u.ID)
	if got.Name == "mutated after create" {
		t.Fatal("store shares memory with caller input")
	}
	got.Photos = append(got.Photos, "x")
	again, _ := s.GetUser(context.Background(), u.ID)
	if len(again.Photos) != 0 {
		t.Error("store shares memory with returned values")
	}
}

func TestMemory_ConcurrentReciprocalLikesMatchOnce(t *testing.T) {
	s := NewMemory()
	alice := newUser(t, s, "+15555550110", base, true)
	bob := newUser(t, s, "+15555550111", base, true)

	var wg sync.WaitGroup
	results := make(chan *models.Match, 2)
	for _, pair := range [][2]*models.User{{alice, bob}, {bob, alice}} {
		wg.Add(1)
		go func(from, to *models.User) {
			defer wg.Done()
			m, err := s.RecordSwipe(context.Background(), &models.Swipe{SwiperID: from.ID, TargetID: to.ID, Action: models.SwipeLike, CreatedAt: base})
			if err != nil {
				t.Errorf("RecordSwipe: %v", err)
			}
			results <- m
		}(pair[0], pair[1])
	}
	wg.Wait()
	close(results)

	matches := 0
	for m := range results {
		if m != nil {
			matches++
		}
	}
	if matches != 1 {
		t.Errorf("got %d matches, want exactly 1", matches)
	}
}
