// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mix/internal/models"
)

// Topics published by the API and consumed by the realtime forwarder.
const (
	TopicMatchCreated   = "match.created"
	TopicMatchRemoved   = "match.removed"
	TopicMessageCreated = "message.created"
	TopicUserBanned     = "user.banned"
)

// Topics lists every topic the forwarder subscribes to.
func Topics() []string {
	return []string{TopicMatchCreated, TopicMatchRemoved, TopicMessageCreated, TopicUserBanned}
}

// MatchCreated carries one view per participant, keyed by user id, since
// each side sees the other's profile.
type MatchCreated struct {
	MatchID   string                      `json:"matchId"`
	CreatedAt time.Time                   `json:"createdAt"`
	Views     map[string]models.MatchView `json:"views"`
}

// MatchRemoved tells the other participant that a match is gone.
type MatchRemoved struct {
	MatchID     string `json:"matchId"`
	RecipientID string `json:"recipientId"`
}

// MessageCreated is delivered to the recipient only; the sender already has
// the message from the HTTP response.
type MessageCreated struct {
	Message     models.Message `json:"message"`
	RecipientID string         `json:"recipientId"`
}

// UserBanned closes every socket of the user.
type UserBanned struct {
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

func encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}

func decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return nil
}
