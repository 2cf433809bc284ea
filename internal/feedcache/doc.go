// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package feedcache implements the cache and merge layer between the
// upstream event source and the rails.
//
// Cached feeds are served immediately for perceived-instant loads while a
// guarded background refresh fetches fresh data, merges it with the cached
// set (fresh entries win by ID, cached entries fill remaining slots),
// re-applies the deterministic daily shuffle, and persists the capped
// result. Upstream failures never evict last-known-good data; the fetch
// path is protected by a per-key rate limiter, a per-key in-flight guard,
// and a circuit breaker.
package feedcache
