// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package seen

import (
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/eventide-app/eventide/internal/kvstore"
)

// seenKey is the storage key for the seen-ID map.
const seenKey = "seen"

// FilterOptions configures a Filter.
type FilterOptions struct {
	// Enabled gates the filter; disabled passes everything through.
	Enabled bool

	// TTL is how long an item stays marked after being shown.
	TTL time.Duration

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Filter keeps a TTL-bounded record of item IDs already presented to the
// user. Expired entries are pruned lazily on read and write. Safe for
// concurrent use.
type Filter struct {
	store  kvstore.Store
	opts   FilterOptions
	logger zerolog.Logger

	mu sync.Mutex
}

// NewFilter creates a seen filter over the given store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFilter(store kvstore.Store, opts FilterOptions, logger zerolog.Logger) *Filter {
	if opts.TTL <= 0 {
		opts.TTL = 14 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Filter{
		store:  store,
		opts:   opts,
		logger: logger.With().Str("component", "seen").Logger(),
	}
}

// MarkSeen records the given item IDs as shown now.
func (f *Filter) MarkSeen(ids ...string) {
	if !f.opts.Enabled || len(ids) == 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.opts.Now()
	marks := f.prune(f.read(), now)
	for _, id := range ids {
		if id != "" {
			marks[id] = now.UnixMilli()
		}
	}
	f.write(marks)
}

// Seen reports whether id was marked within the TTL window.
func (f *Filter) Seen(id string) bool {
	if !f.opts.Enabled {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	markedAt, ok := f.read()[id]
	if !ok {
		return false
	}
	return markedAt >= f.cutoff(f.opts.Now())
}

// Clear drops all seen marks.
func (f *Filter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.store.Remove(seenKey); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		f.logger.Debug().Err(err).Msg("clear seen marks failed")
	}
}

// Unseen returns the items whose key is not currently marked seen, in input
// order. With the filter disabled the input is returned unchanged.
func Unseen[T any](f *Filter, items []T, key func(T) string) []T {
	if !f.opts.Enabled || len(items) == 0 {
		return items
	}

	f.mu.Lock()
	marks := f.read()
	cutoff := f.cutoff(f.opts.Now())
	f.mu.Unlock()

	out := make([]T, 0, len(items))
	for _, item := range items {
		if markedAt, ok := marks[key(item)]; ok && markedAt >= cutoff {
			continue
		}
		out = append(out, item)
	}
	return out
}

// cutoff is the oldest mark timestamp still considered seen, in epoch ms.
func (f *Filter) cutoff(now time.Time) int64 {
	return now.Add(-f.opts.TTL).UnixMilli()
}

// prune drops expired marks.
func (f *Filter) prune(marks map[string]int64, now time.Time) map[string]int64 {
	cutoff := f.cutoff(now)
	for id, markedAt := range marks {
		if markedAt < cutoff {
			delete(marks, id)
		}
	}
	return marks
}

// read loads the seen map; corrupt or missing data is empty state.
func (f *Filter) read() map[string]int64 {
	raw, err := f.store.Get(seenKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			f.logger.Debug().Err(err).Msg("read seen marks failed")
		}
		return make(map[string]int64)
	}

	var marks map[string]int64
	if err := json.Unmarshal([]byte(raw), &marks); err != nil {
		f.logger.Warn().Err(err).Msg("corrupt seen store, resetting")
		return make(map[string]int64)
	}
	return marks
}

// write persists the seen map; failures are non-fatal.
func (f *Filter) write(marks map[string]int64) {
	data, err := json.Marshal(marks)
	if err != nil {
		f.logger.Debug().Err(err).Msg("marshal seen marks failed")
		return
	}
	if err := f.store.Set(seenKey, string(data)); err != nil {
		f.logger.Debug().Err(err).Msg("persist seen marks failed")
	}
}
