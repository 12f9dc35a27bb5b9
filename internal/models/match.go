// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package models

import "time"

// SwipeAction is the caller's decision on a discovered profile.
type SwipeAction string

const (
	SwipeLike      SwipeAction = "like"
	SwipePass      SwipeAction = "pass"
	SwipeSuperlike SwipeAction = "superlike"
)

// Positive reports whether the action can produce a match.
func (a SwipeAction) Positive() bool {
	return a == SwipeLike || a == SwipeSuperlike
}

// Swipe is one user's decision about another. A pair has at most one swipe
// per direction.
type Swipe struct {
	ID        string      `json:"id"`
	SwiperID  string      `json:"swiperId"`
	TargetID  string      `json:"targetUserId"`
	Action    SwipeAction `json:"action"`
	CreatedAt time.Time   `json:"createdAt"`
}

// SwipeRequest is the body of POST /api/discover/swipe.
type SwipeRequest struct {
	TargetUserID string      `json:"targetUserId" validate:"required,uuid"`
	Action       SwipeAction `json:"action" validate:"required,oneof=like pass superlike"`
}

// SwipeResult reports whether the swipe completed a match.
type SwipeResult struct {
	Matched bool       `json:"matched"`
	Match   *MatchView `json:"match,omitempty"`
}

type MatchStatus string

const (
	MatchStatusActive    MatchStatus = "active"
	MatchStatusUnmatched MatchStatus = "unmatched"
)

// Match links two users who liked each other. UserAID sorts before UserBID so
// a pair maps to a single row.
type Match struct {
	ID          string      `json:"id"`
	UserAID     string      `json:"userAId"`
	UserBID     string      `json:"userBId"`
	Status      MatchStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UnmatchedAt *time.Time  `json:"unmatchedAt,omitempty"`
}

// OrderedPair returns a and b sorted, the key a Match is stored under.
func OrderedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// Has reports whether userID participates in m.
func (m *Match) Has(userID string) bool {
	return userID != "" && (m.UserAID == userID || m.UserBID == userID)
}

// Other returns the participant that is not userID.
func (m *Match) Other(userID string) string {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

// Active reports whether the pair can still exchange messages.
func (m *Match) Active() bool {
	return m.Status == MatchStatusActive
}

// MatchView is a match as seen by one participant.
type MatchView struct {
	ID          string        `json:"id"`
	Status      MatchStatus   `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	User        PublicProfile `json:"user"`
	LastMessage *Message      `json:"lastMessage,omitempty"`
}

// Message is a chat line inside a match.
type Message struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"matchId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SendMessageRequest is the body of POST /api/matches/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
