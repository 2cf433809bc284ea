// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package rails

import (
	"io"
	"testing"
	"time"

	"github.com/eventide-app/eventide/internal/affinity"
	"github.com/eventide-app/eventide/internal/interactions"
	"github.com/eventide-app/eventide/internal/kvstore"
	"github.com/eventide-app/eventide/internal/logging"
)

func testManager(t *testing.T, store kvstore.Store, now func() time.Time) *Manager {
	t.Helper()
	return NewManager(store, ManagerOptions{
		Enabled:        true,
		CoreLimit:      8,
		DynamicLimit:   3,
		SpawnThreshold: 0.4,
		MinInventory:   4,
		SunsetAfter:    14 * 24 * time.Hour,
		Now:            now,
	}, logging.NewTestLogger(io.Discard))
}

func coreList() []CoreCategory {
	return []CoreCategory{
		{ID: "music", Title: "Music", Emoji: "🎵"},
		{ID: "food", Title: "Food & Drink", Emoji: "🍽️"},
	}
}

func dynamicOf(rails []DynamicRail) []DynamicRail {
	out := make([]DynamicRail, 0, len(rails))
	for _, r := range rails {
		if !r.IsCore {
			out = append(out, r)
		}
	}
	return out
}

func TestManager_Disabled(t *testing.T) {
	m := NewManager(kvstore.NewMemory(), ManagerOptions{Enabled: false}, logging.NewTestLogger(io.Discard))

	got := m.Manage(coreList(), profileWith(map[string]float64{"jazz": 0.9}), map[string]int{"jazz": 10}, nil)

	if len(got) != 0 {
		t.Errorf("Manage() disabled returned %d rails, want 0", len(got))
	}
}

func TestManager_DefaultsSpawnDynamicRails(t *testing.T) {
	// Zero-value options must select the documented defaults rather
	// than leaving DynamicLimit at 0, which would silently disable
	// spawning while the manager is enabled.
	m := NewManager(kvstore.NewMemory(), ManagerOptions{Enabled: true}, logging.NewTestLogger(io.Discard))

	profile := profileWith(map[string]float64{"jazz": 0.6})
	got := m.Manage(coreList(), profile, map[string]int{"jazz": 6}, nil)

	dynamic := dynamicOf(got)
	if len(dynamic) != 1 {
		t.Fatalf("dynamic rails = %d, want 1 under default options", len(dynamic))
	}
	if dynamic[0].CategoryID != "jazz" {
		t.Errorf("CategoryID = %q, want jazz", dynamic[0].CategoryID)
	}
}

func TestManager_SpawnsEligibleRail(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := testManager(t, kvstore.NewMemory(), func() time.Time { return now })

	profile := profileWith(map[string]float64{"jazz": 0.6, "music": 0.3})
	got := m.Manage(coreList(), profile, map[string]int{"jazz": 6}, nil)

	dynamic := dynamicOf(got)
	if len(dynamic) != 1 {
		t.Fatalf("dynamic rails = %d, want 1", len(dynamic))
	}
	rail := dynamic[0]
	if rail.CategoryID != "jazz" {
		t.Errorf("CategoryID = %q, want jazz", rail.CategoryID)
	}
	if rail.ID != "dyn-jazz" {
		t.Errorf("ID = %q, want dyn-jazz", rail.ID)
	}
	if rail.AffinityScore != 0.6 {
		t.Errorf("AffinityScore = %v, want 0.6", rail.AffinityScore)
	}
	if rail.SpawnedAt != now.UnixMilli() {
		t.Errorf("SpawnedAt = %d, want %d", rail.SpawnedAt, now.UnixMilli())
	}
}

func TestManager_SpawnRejections(t *testing.T) {
	tests := []struct {
		name      string
		profile   *affinity.Profile
		inventory map[string]int
	}{
		{
			name:      "below threshold",
			profile:   profileWith(map[string]float64{"jazz": 0.39}),
			inventory: map[string]int{"jazz": 10},
		},
		{
			name:      "insufficient inventory",
			profile:   profileWith(map[string]float64{"jazz": 0.9}),
			inventory: map[string]int{"jazz": 3},
		},
		{
			name:      "core category never spawns dynamic",
			profile:   profileWith(map[string]float64{"music": 0.9}),
			inventory: map[string]int{"music": 10},
		},
	}

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testManager(t, kvstore.NewMemory(), func() time.Time { return now })

			got := m.Manage(coreList(), tt.profile, tt.inventory, nil)

			if n := len(dynamicOf(got)); n != 0 {
				t.Errorf("dynamic rails = %d, want 0", n)
			}
		})
	}
}

func TestManager_DynamicLimitHonored(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := testManager(t, kvstore.NewMemory(), func() time.Time { return now })

	profile := profileWith(map[string]float64{
		"jazz": 0.9, "comedy": 0.8, "trivia": 0.7, "hiking": 0.6, "karaoke": 0.5,
	})
	inventory := map[string]int{"jazz": 9, "comedy": 9, "trivia": 9, "hiking": 9, "karaoke": 9}

	got := m.Manage(coreList(), profile, inventory, nil)

	dynamic := dynamicOf(got)
	if len(dynamic) != 3 {
		t.Fatalf("dynamic rails = %d, want 3", len(dynamic))
	}
	// Highest scores win the capacity.
	want := []string{"jazz", "comedy", "trivia"}
	for i, id := range want {
		if dynamic[i].CategoryID != id {
			t.Errorf("dynamic[%d] = %q, want %q", i, dynamic[i].CategoryID, id)
		}
	}
}

func TestManager_IdempotentWithoutNewSignal(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := testManager(t, kvstore.NewMemory(), func() time.Time { return now })

	profile := profileWith(map[string]float64{"jazz": 0.6})
	inventory := map[string]int{"jazz": 6}

	first := m.Manage(coreList(), profile, inventory, nil)
	second := m.Manage(coreList(), profile, inventory, nil)

	if len(first) != len(second) {
		t.Fatalf("rail count changed: %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("rail %d changed: %q then %q", i, first[i].ID, second[i].ID)
		}
		if first[i].SpawnedAt != second[i].SpawnedAt {
			t.Errorf("rail %q SpawnedAt changed: %d then %d", first[i].ID, first[i].SpawnedAt, second[i].SpawnedAt)
		}
	}
}

func TestManager_SunsetAfterInactivity(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := testManager(t, kvstore.NewMemory(), func() time.Time { return now })

	profile := profileWith(map[string]float64{"jazz": 0.6})
	if n := len(dynamicOf(m.Manage(coreList(), profile, map[string]int{"jazz": 6}, nil))); n != 1 {
		t.Fatalf("setup: dynamic rails = %d, want 1", n)
	}

	// Score drops below the spawn threshold but the rail stays active
	// until the sunset window elapses.
	faded := profileWith(map[string]float64{"jazz": 0.1})
	now = now.Add(13 * 24 * time.Hour)
	if n := len(dynamicOf(m.Manage(coreList(), faded, map[string]int{"jazz": 6}, nil))); n != 1 {
		t.Errorf("before sunset window: dynamic rails = %d, want 1", n)
	}

	now = now.Add(2 * 24 * time.Hour)
	if n := len(dynamicOf(m.Manage(coreList(), faded, map[string]int{"jazz": 6}, nil))); n != 0 {
		t.Errorf("after sunset window: dynamic rails = %d, want 0", n)
	}
}

func TestManager_RecentActivityDefersSunset(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := testManager(t, kvstore.NewMemory(), func() time.Time { return now })

	profile := profileWith(map[string]float64{"jazz": 0.6})
	m.Manage(coreList(), profile, map[string]int{"jazz": 6}, nil)

	// Fifteen days on, but a jazz click an hour ago refreshes activity.
	now = now.Add(15 * 24 * time.Hour)
	faded := profileWith(map[string]float64{"jazz": 0.1})
	events := []interactions.Event{{
		Type:      interactions.TypeClick,
		Category:  "jazz",
		Timestamp: now.Add(-time.Hour).UnixMilli(),
	}}

	got := m.Manage(coreList(), faded, map[string]int{"jazz": 6}, events)

	if n := len(dynamicOf(got)); n != 1 {
		t.Errorf("dynamic rails = %d, want 1 (activity should defer sunset)", n)
	}
}

func TestManager_CoreRailsOrderedByScore(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := testManager(t, kvstore.NewMemory(), func() time.Time { return now })

	profile := profileWith(map[string]float64{"food": 0.8, "music": 0.2})
	got := m.Manage(coreList(), profile, nil, nil)

	if len(got) != 2 {
		t.Fatalf("rails = %d, want 2", len(got))
	}
	if got[0].CategoryID != "food" || got[1].CategoryID != "music" {
		t.Errorf("core order = [%s %s], want [food music]", got[0].CategoryID, got[1].CategoryID)
	}
	for _, r := range got {
		if !r.IsCore {
			t.Errorf("rail %q IsCore = false, want true", r.ID)
		}
	}
}

func TestManager_CorruptCheckpointResets(t *testing.T) {
	store := kvstore.NewMemory()
	if err := store.Set("rails", "{not json"); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := testManager(t, store, func() time.Time { return now })

	profile := profileWith(map[string]float64{"jazz": 0.6})
	got := m.Manage(coreList(), profile, map[string]int{"jazz": 6}, nil)

	if n := len(dynamicOf(got)); n != 1 {
		t.Errorf("dynamic rails after corrupt checkpoint = %d, want 1", n)
	}
}

func TestManager_WriteFailureNonFatal(t *testing.T) {
	store := kvstore.NewMemory()
	store.FailWrites(true)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := testManager(t, store, func() time.Time { return now })

	profile := profileWith(map[string]float64{"jazz": 0.6})
	got := m.Manage(coreList(), profile, map[string]int{"jazz": 6}, nil)

	if n := len(dynamicOf(got)); n != 1 {
		t.Errorf("dynamic rails with failing store = %d, want 1", n)
	}
}
