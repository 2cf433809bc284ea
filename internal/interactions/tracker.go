// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package interactions

import (
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventide-app/eventide/internal/kvstore"
	"github.com/eventide-app/eventide/internal/metrics"
)

// Storage keys.
const (
	logKey     = "interactions"
	sessionKey = "session_id"
)

// Options configures a Tracker.
type Options struct {
	// Enabled gates all tracking; a disabled tracker is a no-op.
	Enabled bool

	// MaxEvents caps the log; oldest entries are evicted first.
	MaxEvents int

	// MaxAge is the retention window; older entries are purged lazily.
	MaxAge time.Duration

	// DebounceWindow batches Record calls into one storage write.
	DebounceWindow time.Duration

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Tracker is the debounced, bounded interaction log.
// It is safe for concurrent use.
type Tracker struct {
	store   kvstore.Store
	session kvstore.Store
	opts    Options
	logger  zerolog.Logger

	mu    sync.Mutex
	queue []Event
	timer *time.Timer
}

// NewTracker creates a tracker over the given persistent and session stores.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTracker(store, session kvstore.Store, opts Options, logger zerolog.Logger) *Tracker {
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = 500
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 90 * 24 * time.Hour
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 500 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Tracker{
		store:   store,
		session: session,
		opts:    opts,
		logger:  logger.With().Str("component", "interactions").Logger(),
	}
}

// Record enqueues an event for the debounced flush. The tracker stamps the
// timestamp and session ID; the caller fills the contextual fields.
// Invalid types are dropped.
func (t *Tracker) Record(typ Type, data Event) {
	if !t.opts.Enabled || !typ.Valid() {
		return
	}

	data.Type = typ
	data.Timestamp = t.opts.Now().UnixMilli()
	data.SessionID = t.SessionID()

	metrics.InteractionsRecorded.WithLabelValues(string(typ)).Inc()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.queue = append(t.queue, data)
	if t.timer == nil {
		t.timer = time.AfterFunc(t.opts.DebounceWindow, t.Flush)
	}
}

// Flush writes the pending batch immediately. It is called by the debounce
// timer and exposed for tests and shutdown paths that need synchronous
// behavior. A failed write drops the batch; tracking is best-effort.
func (t *Tracker) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if len(t.queue) == 0 {
		return
	}

	batch := t.queue
	t.queue = nil

	events := t.readLocked()
	events = append(events, batch...)
	events = t.prune(events)

	if err := t.writeLocked(events); err != nil {
		// Queue already cleared; dropping the batch keeps it bounded.
		metrics.TrackerDroppedBatches.Inc()
		t.logger.Debug().Err(err).Int("batch", len(batch)).Msg("dropped interaction batch")
		return
	}

	metrics.TrackerFlushes.Inc()
}

// ReadAll returns all non-expired events, purging expired ones from storage
// as a side effect. Pending queued events are flushed first so readers see a
// consistent log.
func (t *Tracker) ReadAll() []Event {
	if !t.opts.Enabled {
		return nil
	}

	t.Flush()

	t.mu.Lock()
	defer t.mu.Unlock()

	events := t.readLocked()
	pruned := t.prune(events)
	if len(pruned) != len(events) {
		// Lazy prune; a failed rewrite is harmless, next read retries.
		if err := t.writeLocked(pruned); err != nil {
			t.logger.Debug().Err(err).Msg("prune rewrite failed")
		}
	}

	return pruned
}

// ClearAll removes all events and resets the session identifier.
// This is the privacy reset.
func (t *Tracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.queue = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}

	if err := t.store.Remove(logKey); err != nil {
		t.logger.Debug().Err(err).Msg("clear interactions failed")
	}
	if err := t.session.Remove(sessionKey); err != nil {
		t.logger.Debug().Err(err).Msg("clear session failed")
	}
}

// SessionID returns the stable identifier for the current browsing session,
// creating one on first use.
func (t *Tracker) SessionID() string {
	id, err := t.session.Get(sessionKey)
	if err == nil && id != "" {
		return id
	}

	id = uuid.NewString()
	if err := t.session.Set(sessionKey, id); err != nil {
		// Session store unavailable; a per-call ID still groups nothing
		// incorrectly, it just fragments sessions.
		t.logger.Debug().Err(err).Msg("session id not persisted")
	}
	return id
}

// readLocked loads the persisted log. Corrupt or missing data is empty state.
func (t *Tracker) readLocked() []Event {
	raw, err := t.store.Get(logKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			t.logger.Debug().Err(err).Msg("read interactions failed")
		}
		return nil
	}

	var events []Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		t.logger.Warn().Err(err).Msg("corrupt interaction log, resetting")
		return nil
	}
	return events
}

// writeLocked persists the log.
func (t *Tracker) writeLocked(events []Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return t.store.Set(logKey, string(data))
}

// prune drops events older than the retention window, then enforces the cap
// by evicting the oldest entries.
func (t *Tracker) prune(events []Event) []Event {
	cutoff := t.opts.Now().Add(-t.opts.MaxAge).UnixMilli()

	kept := events[:0:len(events)]
	for _, e := range events {
		if e.Timestamp >= cutoff {
			kept = append(kept, e)
		}
	}

	if len(kept) > t.opts.MaxEvents {
		kept = kept[len(kept)-t.opts.MaxEvents:]
	}
	return kept
}
