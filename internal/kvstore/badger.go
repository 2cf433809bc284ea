// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package kvstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Badger is a durable Store backed by BadgerDB. It is used by the server-side
// mirror where personalization state must survive process restarts.
type Badger struct {
	db *badger.DB

	// prefix namespaces all keys so multiple components can share one DB.
	prefix string

	// ttl, when non-zero, is applied to every write.
	ttl time.Duration
}

// NewBadger wraps an open BadgerDB handle. The prefix namespaces all keys
// written through this store; ttl of zero means entries never expire.
func NewBadger(db *badger.DB, prefix string, ttl time.Duration) *Badger {
	return &Badger{db: db, prefix: prefix, ttl: ttl}
}

// OpenBadger opens a BadgerDB at dir with logging disabled.
// The caller owns the returned DB and must Close it.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return db, nil
}

// Get returns the value for key, or ErrNotFound.
func (b *Badger) Get(key string) (string, error) {
	var value string

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(b.prefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}

		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	return value, nil
}

// Set stores value under key, applying the store TTL if configured.
func (b *Badger) Set(key, value string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(b.prefix+key), []byte(value))
		if b.ttl > 0 {
			entry = entry.WithTTL(b.ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// Remove deletes key. Removing a missing key is not an error.
func (b *Badger) Remove(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(b.prefix + key))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		return nil
	})
}

// Ensure Badger implements the interface.
var _ Store = (*Badger)(nil)
