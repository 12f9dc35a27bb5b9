// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	sessionKeyPrefix     = "session:"
	sessionUserKeyPrefix = "session_user:"
)

// BadgerSessionStore keeps sessions on disk so sign-ins survive restarts.
// Entries carry a Badger TTL matching the session expiry, so the engine
// drops them even if CleanupExpired never runs.
type BadgerSessionStore struct {
	db     *badger.DB
	ownsDB bool
}

// NewBadgerSessionStore wraps an already open database. Close leaves it open.
func NewBadgerSessionStore(db *badger.DB) *BadgerSessionStore {
	return &BadgerSessionStore{db: db}
}

// OpenBadgerSessionStore opens (or creates) a database at path.
// An empty path opens an in-memory instance, which tests use.
func OpenBadgerSessionStore(path string) (*BadgerSessionStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for sessions: %w", err)
	}
	return &BadgerSessionStore{db: db, ownsDB: true}, nil
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}

func sessionUserKey(userID, id string) []byte {
	return []byte(sessionUserKeyPrefix + userID + ":" + id)
}

// setSession writes both the session and its user index entry with the
// remaining lifetime as TTL.
func setSession(txn *badger.Txn, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := txn.SetEntry(badger.NewEntry(sessionKey(session.ID), data).WithTTL(ttl)); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	if err := txn.SetEntry(badger.NewEntry(sessionUserKey(session.UserID, session.ID), nil).WithTTL(ttl)); err != nil {
		return fmt.Errorf("set user mapping: %w", err)
	}
	return nil
}

func getSession(txn *badger.Txn, id string) (*Session, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var session Session
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &session)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func deleteSession(txn *badger.Txn, session *Session) error {
	if err := txn.Delete(sessionKey(session.ID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := txn.Delete(sessionUserKey(session.UserID, session.ID)); err != nil {
		return fmt.Errorf("delete user mapping: %w", err)
	}
	return nil
}

func (s *BadgerSessionStore) Create(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setSession(txn, session)
	})
}

func (s *BadgerSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var session *Session
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		session, err = getSession(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		if delErr := s.Delete(ctx, id); delErr != nil {
			return nil, delErr
		}
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (s *BadgerSessionStore) Update(_ context.Context, session *Session) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := getSession(txn, session.ID); err != nil {
			return err
		}
		return setSession(txn, session)
	})
}

func (s *BadgerSessionStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		session, err := getSession(txn, id)
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return deleteSession(txn, session)
	})
}

// DeleteByUserID walks the user index keys only; the session id is the key
// suffix so values are never loaded.
func (s *BadgerSessionStore) DeleteByUserID(_ context.Context, userID string) (int, error) {
	count := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(sessionUserKeyPrefix + userID + ":")
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		var ids []string
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
		}
		it.Close()

		for _, id := range ids {
			if err := deleteSession(txn, &Session{ID: id, UserID: userID}); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return count, nil
}

func (s *BadgerSessionStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		session, err := getSession(txn, id)
		if err != nil {
			return err
		}
		session.LastAccessedAt = time.Now()
		session.ExpiresAt = expiresAt
		return setSession(txn, session)
	})
}

func (s *BadgerSessionStore) CleanupExpired(_ context.Context) (int, error) {
	now := time.Now()
	var expired []*Session

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var session Session
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			}); err != nil {
				continue
			}
			if session.IsExpired(now) {
				expired = append(expired, &session)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, session := range expired {
			if err := deleteSession(txn, session); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}

// Close closes the database when the store opened it.
func (s *BadgerSessionStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// NewSessionStore picks the backend named by kind ("memory" or "badger").
func NewSessionStore(kind, path string) (SessionStore, error) {
	switch kind {
	case "", "memory":
		return NewMemorySessionStore(), nil
	case "badger":
		store, err := OpenBadgerSessionStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
}
