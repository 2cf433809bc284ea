// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package rails

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/eventide-app/eventide/internal/affinity"
	"github.com/eventide-app/eventide/internal/interactions"
	"github.com/eventide-app/eventide/internal/kvstore"
	"github.com/eventide-app/eventide/internal/metrics"
)

// checkpointKey is the storage key for the manager's rail list.
const checkpointKey = "rails"

// activityWindow is how recently an interaction must have touched a
// category to refresh its rail's LastActiveAt.
const activityWindow = 24 * time.Hour

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Enabled gates the whole manager; disabled returns an empty list.
	Enabled bool

	// CoreLimit caps core rails.
	CoreLimit int

	// DynamicLimit caps concurrently active dynamic rails.
	DynamicLimit int

	// SpawnThreshold is the minimum affinity score for a candidate.
	SpawnThreshold float64

	// MinInventory is the minimum available events for a candidate.
	MinInventory int

	// SunsetAfter is the inactivity window before a dynamic rail retires.
	SunsetAfter time.Duration

	// Meta overrides the default rail metadata table per category.
	Meta map[string]Meta

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Manager owns the dynamic rail lifecycle. Each Manage pass rebuilds core
// rails from the configured list, spawns eligible dynamic rails, retires
// inactive ones, and checkpoints the full list so repeated passes are
// idempotent absent new signal. Safe for concurrent use.
type Manager struct {
	store  kvstore.Store
	opts   ManagerOptions
	logger zerolog.Logger

	mu sync.Mutex
}

// NewManager creates a dynamic rail manager over the given store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(store kvstore.Store, opts ManagerOptions, logger zerolog.Logger) *Manager {
	if opts.CoreLimit <= 0 {
		opts.CoreLimit = 8
	}
	if opts.DynamicLimit <= 0 {
		opts.DynamicLimit = 3
	}
	if opts.SpawnThreshold <= 0 {
		opts.SpawnThreshold = 0.4
	}
	if opts.MinInventory <= 0 {
		opts.MinInventory = 4
	}
	if opts.SunsetAfter <= 0 {
		opts.SunsetAfter = 14 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		store:  store,
		opts:   opts,
		logger: logger.With().Str("component", "rails").Logger(),
	}
}

// Manage runs one lifecycle pass and returns the active rail list, core
// rails first, dynamic rails after, each group ordered by score descending.
// Returns an empty list when the manager is disabled.
func (m *Manager) Manage(core []CoreCategory, profile *affinity.Profile, inventory map[string]int, events []interactions.Event) []DynamicRail {
	if !m.opts.Enabled {
		return []DynamicRail{}
	}
	if profile == nil {
		profile = &affinity.Profile{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	prior := m.loadCheckpoint()
	recent := recentCategories(events, now)

	coreRails := m.buildCoreRails(core, profile, prior, now)
	dynamic := m.reviseDynamicRails(coreRails, profile, inventory, prior, recent, now)

	all := append(coreRails, dynamic...)
	m.saveCheckpoint(all)

	metrics.ActiveDynamicRails.Set(float64(len(dynamic)))
	return all
}

// buildCoreRails recreates core rails idempotently from the configured
// list, merging scores and activity state from the prior checkpoint.
func (m *Manager) buildCoreRails(core []CoreCategory, profile *affinity.Profile, prior map[string]DynamicRail, now time.Time) []DynamicRail {
	limit := len(core)
	if limit > m.opts.CoreLimit {
		limit = m.opts.CoreLimit
	}

	rails := make([]DynamicRail, 0, limit)
	for _, cat := range core[:limit] {
		rail := DynamicRail{
			ID:            cat.ID,
			CategoryID:    cat.ID,
			Title:         cat.Title,
			Emoji:         cat.Emoji,
			AffinityScore: profile.Categories[cat.ID],
			SpawnedAt:     now.UnixMilli(),
			LastActiveAt:  now.UnixMilli(),
			IsCore:        true,
		}
		if p, ok := prior[cat.ID]; ok && p.IsCore {
			rail.SpawnedAt = p.SpawnedAt
		}
		rails = append(rails, rail)
	}

	sort.SliceStable(rails, func(i, j int) bool {
		return rails[i].AffinityScore > rails[j].AffinityScore
	})
	return rails
}

// reviseDynamicRails carries prior dynamic rails through the sunset check,
// then spawns new eligible candidates into the remaining capacity.
func (m *Manager) reviseDynamicRails(coreRails []DynamicRail, profile *affinity.Profile, inventory map[string]int, prior map[string]DynamicRail, recent map[string]struct{}, now time.Time) []DynamicRail {
	coreIDs := make(map[string]struct{}, len(coreRails))
	for _, r := range coreRails {
		coreIDs[r.CategoryID] = struct{}{}
	}

	cutoff := now.Add(-m.opts.SunsetAfter).UnixMilli()

	// Existing dynamic rails: refresh activity, then sunset the stale.
	active := make([]DynamicRail, 0, m.opts.DynamicLimit)
	for _, rail := range prior {
		if rail.IsCore {
			continue
		}
		if _, ok := coreIDs[rail.CategoryID]; ok {
			continue
		}

		if _, ok := recent[rail.CategoryID]; ok {
			rail.LastActiveAt = now.UnixMilli()
		}
		if rail.LastActiveAt < cutoff {
			metrics.RailsSunset.Inc()
			m.logger.Debug().Str("category", rail.CategoryID).Msg("rail sunset")
			continue
		}

		rail.AffinityScore = profile.Categories[rail.CategoryID]
		active = append(active, rail)
	}

	// Candidates: non-core categories clearing both thresholds.
	existing := make(map[string]struct{}, len(active))
	for _, r := range active {
		existing[r.CategoryID] = struct{}{}
	}

	type candidate struct {
		id    string
		score float64
	}
	candidates := make([]candidate, 0)
	for id, score := range profile.Categories {
		if _, ok := coreIDs[id]; ok {
			continue
		}
		if _, ok := existing[id]; ok {
			continue
		}
		if score >= m.opts.SpawnThreshold && inventory[id] >= m.opts.MinInventory {
			candidates = append(candidates, candidate{id: id, score: score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})

	for _, c := range candidates {
		if len(active) >= m.opts.DynamicLimit {
			break
		}
		meta := metaFor(c.id, m.opts.Meta)
		active = append(active, DynamicRail{
			ID:            "dyn-" + c.id,
			CategoryID:    c.id,
			Title:         meta.Title,
			Emoji:         meta.Emoji,
			AffinityScore: c.score,
			SpawnedAt:     now.UnixMilli(),
			LastActiveAt:  now.UnixMilli(),
			IsCore:        false,
		})
		metrics.RailsSpawned.Inc()
		m.logger.Info().Str("category", c.id).Float64("score", c.score).Msg("rail spawned")
	}

	// Capacity may have shrunk since the checkpoint was written.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].AffinityScore > active[j].AffinityScore
	})
	if len(active) > m.opts.DynamicLimit {
		active = active[:m.opts.DynamicLimit]
	}

	return active
}

// recentCategories collects category IDs touched by an interaction within
// the activity window.
func recentCategories(events []interactions.Event, now time.Time) map[string]struct{} {
	cutoff := now.Add(-activityWindow).UnixMilli()
	recent := make(map[string]struct{})
	for _, e := range events {
		if e.Category != "" && e.Timestamp >= cutoff {
			recent[e.Category] = struct{}{}
		}
	}
	return recent
}

// loadCheckpoint reads the persisted rail list keyed by rail ID.
// Corrupt or missing data is empty state.
func (m *Manager) loadCheckpoint() map[string]DynamicRail {
	prior := make(map[string]DynamicRail)

	raw, err := m.store.Get(checkpointKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			m.logger.Debug().Err(err).Msg("read rail checkpoint failed")
		}
		return prior
	}

	var rails []DynamicRail
	if err := json.Unmarshal([]byte(raw), &rails); err != nil {
		m.logger.Warn().Err(err).Msg("corrupt rail checkpoint, resetting")
		return prior
	}

	for _, r := range rails {
		prior[r.CategoryID] = r
	}
	return prior
}

// saveCheckpoint persists the full rail list; failures are non-fatal.
func (m *Manager) saveCheckpoint(rails []DynamicRail) {
	data, err := json.Marshal(rails)
	if err != nil {
		m.logger.Debug().Err(err).Msg("marshal rail checkpoint failed")
		return
	}
	if err := m.store.Set(checkpointKey, string(data)); err != nil {
		m.logger.Debug().Err(err).Msg("persist rail checkpoint failed")
	}
}
