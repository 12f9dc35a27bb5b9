// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package wal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var (
	ErrClosed        = errors.New("wal closed")
	ErrEntryNotFound = errors.New("wal entry not found")
	ErrEmptyTopic    = errors.New("wal entry needs a topic")
)

const prefixPending = "pending:"

// Config selects where entries live.
type Config struct {
	// Path of the BadgerDB directory; empty opens an in-memory database.
	Path string

	// EntryTTL expires entries nobody managed to publish. Zero keeps them.
	EntryTTL time.Duration

	// SyncWrites fsyncs every write.
	SyncWrites bool
}

// Entry is one pending event.
type Entry struct {
	ID            string          `json:"id"`
	Topic         string          `json:"topic"`
	Payload       json.RawMessage `json:"payload"`
	CorrelationID string          `json:"correlationId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	Attempts      int             `json:"attempts"`
	LastError     string          `json:"lastError,omitempty"`
}

// BadgerWAL stores pending entries in BadgerDB.
type BadgerWAL struct {
	db     *badger.DB
	config Config

	mu     sync.RWMutex
	closed bool
}

func Open(cfg Config) (*BadgerWAL, error) {
	opts := badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for wal: %w", err)
	}
	return &BadgerWAL{db: db, config: cfg}, nil
}

func (w *BadgerWAL) checkOpen() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	return nil
}

func entryKey(id string) []byte {
	return []byte(prefixPending + id)
}

func (w *BadgerWAL) put(txn *badger.Txn, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	be := badger.NewEntry(entryKey(e.ID), data)
	if w.config.EntryTTL > 0 {
		be = be.WithTTL(w.config.EntryTTL)
	}
	return txn.SetEntry(be)
}

func getEntry(txn *badger.Txn, id string) (*Entry, error) {
	item, err := txn.Get(entryKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
		return nil, fmt.Errorf("decode entry %s: %w", id, err)
	}
	return &e, nil
}

// Write stores a pending entry and returns its id.
func (w *BadgerWAL) Write(_ context.Context, topic string, payload []byte, correlationID string) (string, error) {
	if err := w.checkOpen(); err != nil {
		return "", err
	}
	if topic == "" {
		return "", ErrEmptyTopic
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate entry id: %w", err)
	}
	e := &Entry{
		ID:            id.String(),
		Topic:         topic,
		Payload:       payload,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := w.db.Update(func(txn *badger.Txn) error { return w.put(txn, e) }); err != nil {
		return "", fmt.Errorf("write entry: %w", err)
	}
	return e.ID, nil
}

// Confirm removes a published entry.
func (w *BadgerWAL) Confirm(_ context.Context, id string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	return w.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(entryKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		return txn.Delete(entryKey(id))
	})
}

// Delete is Confirm for entries that are given up on.
func (w *BadgerWAL) Delete(ctx context.Context, id string) error {
	return w.Confirm(ctx, id)
}

// RecordFailure counts a failed publish and returns the new attempt count.
func (w *BadgerWAL) RecordFailure(_ context.Context, id string, cause error) (int, error) {
	if err := w.checkOpen(); err != nil {
		return 0, err
	}
	var attempts int
	err := w.db.Update(func(txn *badger.Txn) error {
		e, err := getEntry(txn, id)
		if err != nil {
			return err
		}
		e.Attempts++
		if cause != nil {
			e.LastError = cause.Error()
		}
		attempts = e.Attempts
		return w.put(txn, e)
	})
	return attempts, err
}

// Pending returns up to limit entries, oldest first. Zero means all.
func (w *BadgerWAL) Pending(_ context.Context, limit int) ([]*Entry, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	var entries []*Entry
	err := w.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixPending)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				continue
			}
			entries = append(entries, &e)
			if limit > 0 && len(entries) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan wal: %w", err)
	}
	return entries, nil
}

// Len counts pending entries.
func (w *BadgerWAL) Len() (int, error) {
	entries, err := w.Pending(context.Background(), 0)
	return len(entries), err
}

func (w *BadgerWAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.db.Close()
}
