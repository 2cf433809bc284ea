// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package metrics exposes Prometheus instrumentation for the
// personalization core: tracker throughput, affinity compute latency,
// rail lifecycle activity, and feed cache efficiency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interaction tracker
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventide_interactions_recorded_total",
			Help: "Total interactions accepted by the tracker",
		},
		[]string{"type"},
	)

	TrackerFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventide_tracker_flushes_total",
			Help: "Total debounced tracker batch flushes",
		},
	)

	TrackerDroppedBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventide_tracker_dropped_batches_total",
			Help: "Batches dropped because the storage write failed",
		},
	)

	// Affinity scorer
	AffinityComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventide_affinity_compute_duration_seconds",
			Help:    "Duration of affinity profile computation",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Rail lifecycle
	RailsSpawned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventide_rails_spawned_total",
			Help: "Dynamic rails spawned",
		},
	)

	RailsSunset = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventide_rails_sunset_total",
			Help: "Dynamic rails retired after inactivity",
		},
	)

	ActiveDynamicRails = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventide_rails_dynamic_active",
			Help: "Currently active dynamic rails",
		},
	)

	// Feed cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventide_feedcache_hits_total",
			Help: "Feed cache hits (fresh entry served)",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventide_feedcache_misses_total",
			Help: "Feed cache misses (no entry or stale)",
		},
	)

	UpstreamFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventide_upstream_fetches_total",
			Help: "Upstream item source fetches by result",
		},
		[]string{"result"}, // "ok", "error", "breaker_open", "rate_limited"
	)

	// Votes
	VotesCast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventide_votes_cast_total",
			Help: "Votes cast by direction",
		},
		[]string{"direction"},
	)
)
