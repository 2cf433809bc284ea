// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package feedcache

import (
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/eventide-app/eventide/internal/kvstore"
)

// cachePrefix namespaces feed cache keys in the shared store.
const cachePrefix = "feed:"

// Event is one upstream event record as cached and served to the rails.
type Event struct {
	ID        string   `json:"id"`
	Category  string   `json:"category"`
	Title     string   `json:"title"`
	Venue     string   `json:"venue,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// Entry is one cached feed: the events for a category/location pair plus
// the time they were written.
type Entry struct {
	Key       string  `json:"key"`
	WrittenAt int64   `json:"written_at"`
	Events    []Event `json:"events"`
}

// Key derives the cache key for a category and a coarse location hint.
// Location is folded to lowercase and trimmed so that minor formatting
// differences hit the same entry.
func Key(category, location string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return category
	}
	return category + "@" + location
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	// Enabled gates cache reads; writes still happen so the cache warms.
	Enabled bool

	// TTL is the freshness window for an entry.
	TTL time.Duration

	// Cap is the maximum events persisted per entry.
	Cap int

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Cache persists per-key feed entries in the key-value store. Storage
// failures degrade to cache misses. Safe for concurrent use through the
// underlying store.
type Cache struct {
	store  kvstore.Store
	opts   CacheOptions
	logger zerolog.Logger
}

// NewCache creates a feed cache over the given store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCache(store kvstore.Store, opts CacheOptions, logger zerolog.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.Cap <= 0 {
		opts.Cap = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		store:  store,
		opts:   opts,
		logger: logger.With().Str("component", "feedcache").Logger(),
	}
}

// Read returns the entry for key and whether it is still fresh. A nil
// entry means no usable cache exists (disabled, missing, or corrupt).
func (c *Cache) Read(key string) (*Entry, bool) {
	if !c.opts.Enabled {
		return nil, false
	}

	raw, err := c.store.Get(cachePrefix + key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			c.logger.Debug().Err(err).Str("key", key).Msg("read cache entry failed")
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("corrupt cache entry, dropping")
		return nil, false
	}

	age := c.opts.Now().UnixMilli() - entry.WrittenAt
	return &entry, age >= 0 && age < c.opts.TTL.Milliseconds()
}

// Write persists events under key, truncated to the configured cap.
// Failures are non-fatal.
func (c *Cache) Write(key string, events []Event) {
	if len(events) > c.opts.Cap {
		events = events[:c.opts.Cap]
	}

	entry := Entry{
		Key:       key,
		WrittenAt: c.opts.Now().UnixMilli(),
		Events:    events,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("marshal cache entry failed")
		return
	}
	if err := c.store.Set(cachePrefix+key, string(data)); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("persist cache entry failed")
	}
}

// Remove drops the entry for key.
func (c *Cache) Remove(key string) {
	if err := c.store.Remove(cachePrefix + key); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		c.logger.Debug().Err(err).Str("key", key).Msg("remove cache entry failed")
	}
}
