// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package feedcache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/eventide-app/eventide/internal/metrics"
	"github.com/eventide-app/eventide/internal/seen"
)

// Fetcher retrieves fresh events from the upstream source. Implementations
// must honor ctx cancellation.
type Fetcher func(ctx context.Context, category, location string, limit int) ([]Event, error)

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// FetchLimit is the maximum events requested per upstream fetch.
	FetchLimit int

	// FetchesPerMinute rate-limits background refreshes per cache key.
	FetchesPerMinute int

	// BreakerFailureThreshold is the consecutive-failure count that opens
	// the upstream circuit breaker.
	BreakerFailureThreshold uint32

	// BreakerCooldown is how long the breaker stays open.
	BreakerCooldown time.Duration

	// RefreshTimeout bounds each background refresh.
	RefreshTimeout time.Duration

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Loader orchestrates the serve-cached-then-refresh protocol.
//
// Load serves the cached feed immediately when one exists and schedules a
// guarded background refresh; with no cache it fetches synchronously.
// Refreshes merge fresh and cached events by ID with fresh entries winning,
// re-apply the daily shuffle, and persist the capped result. A failed fetch
// never disturbs last-known-good data.
type Loader struct {
	cache  *Cache
	filter *seen.Filter
	fetch  Fetcher
	opts   LoaderOptions
	logger zerolog.Logger

	breaker *gobreaker.CircuitBreaker[[]Event]

	mu       sync.Mutex
	inflight map[string]struct{}
	limiters map[string]*rate.Limiter
}

// NewLoader creates a feed loader. filter may be nil to skip seen
// filtering.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLoader(cache *Cache, filter *seen.Filter, fetch Fetcher, opts LoaderOptions, logger zerolog.Logger) *Loader {
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 50
	}
	if opts.FetchesPerMinute <= 0 {
		opts.FetchesPerMinute = 6
	}
	if opts.BreakerFailureThreshold == 0 {
		opts.BreakerFailureThreshold = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = time.Minute
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	threshold := opts.BreakerFailureThreshold
	breaker := gobreaker.NewCircuitBreaker[[]Event](gobreaker.Settings{
		Name:    "upstream-fetch",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	return &Loader{
		cache:    cache,
		filter:   filter,
		fetch:    fetch,
		opts:     opts,
		logger:   logger.With().Str("component", "feedloader").Logger(),
		breaker:  breaker,
		inflight: make(map[string]struct{}),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Load returns the feed for a category and coarse location.
//
// A fresh, non-empty cache entry is returned at once and a background
// refresh is scheduled; the error is always nil on this path. A stale or
// missing entry forces a synchronous fetch; on fetch failure any stale
// events are served as last-known-good, and the error surfaces only when
// no cached data exists at all.
func (l *Loader) Load(ctx context.Context, category, location string) ([]Event, error) {
	key := Key(category, location)

	entry, fresh := l.cache.Read(key)
	if entry != nil && fresh && len(entry.Events) > 0 {
		metrics.CacheHits.Inc()
		l.refreshAsync(key, category, location)
		return l.unseen(entry.Events), nil
	}
	metrics.CacheMisses.Inc()

	stale := []Event(nil)
	if entry != nil {
		stale = entry.Events
	}

	if !l.acquire(key) {
		// Another fetch for this key is already in flight; its result
		// will land in the cache.
		if len(stale) > 0 {
			return l.unseen(stale), nil
		}
		return []Event{}, nil
	}
	defer l.release(key)

	events, err := l.fetchAndMerge(ctx, key, category, location)
	if err != nil {
		if len(stale) > 0 {
			return l.unseen(stale), nil
		}
		return []Event{}, err
	}
	return l.unseen(events), nil
}

// MarkServed records the given event IDs in the seen filter so the next
// load does not immediately re-surface them.
func (l *Loader) MarkServed(ids ...string) {
	if l.filter != nil {
		l.filter.MarkSeen(ids...)
	}
}

// refreshAsync schedules a background refresh for key, skipping it when a
// refresh is already in flight or the per-key rate limit is exhausted.
func (l *Loader) refreshAsync(key, category, location string) {
	if !l.acquire(key) {
		return
	}
	if !l.limiter(key).Allow() {
		l.release(key)
		return
	}

	go func() {
		defer l.release(key)

		ctx, cancel := context.WithTimeout(context.Background(), l.opts.RefreshTimeout)
		defer cancel()

		if _, err := l.fetchAndMerge(ctx, key, category, location); err != nil {
			l.logger.Debug().Err(err).Str("key", key).Msg("background refresh failed")
		}
	}()
}

// fetchAndMerge fetches fresh events through the circuit breaker, merges
// them with the cached set, re-applies the daily shuffle, and persists the
// result. A cancelled context discards the fetched data unused.
func (l *Loader) fetchAndMerge(ctx context.Context, key, category, location string) ([]Event, error) {
	fresh, err := l.breaker.Execute(func() ([]Event, error) {
		return l.fetch(ctx, category, location, l.opts.FetchLimit)
	})
	if err != nil {
		metrics.UpstreamFetches.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.UpstreamFetches.WithLabelValues("ok").Inc()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var cached []Event
	if entry, _ := l.cache.Read(key); entry != nil {
		cached = entry.Events
	}

	merged := mergeByID(fresh, cached)
	shuffled := seen.Shuffle(merged, seen.SeedForDate(l.opts.Now(), location))
	l.cache.Write(key, shuffled)
	return shuffled, nil
}

// mergeByID combines fresh and cached events: every fresh event is kept in
// fetch order, then cached events whose ID is absent from the fresh set
// fill the remaining slots in cached order.
func mergeByID(fresh, cached []Event) []Event {
	ids := make(map[string]struct{}, len(fresh))
	merged := make([]Event, 0, len(fresh)+len(cached))

	for _, e := range fresh {
		if _, ok := ids[e.ID]; ok {
			continue
		}
		ids[e.ID] = struct{}{}
		merged = append(merged, e)
	}
	for _, e := range cached {
		if _, ok := ids[e.ID]; ok {
			continue
		}
		ids[e.ID] = struct{}{}
		merged = append(merged, e)
	}
	return merged
}

// unseen drops recently shown events when a seen filter is wired.
func (l *Loader) unseen(events []Event) []Event {
	if l.filter == nil {
		return events
	}
	return seen.Unseen(l.filter, events, func(e Event) string { return e.ID })
}

// acquire takes the in-flight slot for key; false means a fetch is
// already running.
func (l *Loader) acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.inflight[key]; ok {
		return false
	}
	l.inflight[key] = struct{}{}
	return true
}

// release frees the in-flight slot for key.
func (l *Loader) release(key string) {
	l.mu.Lock()
	delete(l.inflight, key)
	l.mu.Unlock()
}

// limiter returns the per-key refresh rate limiter, creating it on first
// use with a burst of one.
func (l *Loader) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.opts.FetchesPerMinute)/60, 1)
		l.limiters[key] = lim
	}
	return lim
}
