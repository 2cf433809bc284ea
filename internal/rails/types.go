// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package rails

// Row describes one category rail as presented to the rendering layer.
type Row struct {
	// ID is the category identifier and the affinity lookup key.
	ID string `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Emoji decorates the rail header.
	Emoji string `json:"emoji"`

	// Query is the upstream search key used to fill the rail.
	Query string `json:"query"`

	// Score is the affinity score assigned during reordering.
	Score float64 `json:"score"`

	// IsGenerated marks rails spawned by the dynamic rail manager.
	IsGenerated bool `json:"is_generated,omitempty"`
}

// CoreCategory is one entry of the fixed configured category list from
// which core rails are rebuilt each run.
type CoreCategory struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Emoji string `json:"emoji"`
	Query string `json:"query"`
}

// DynamicRail is a rail owned by the Manager. Core rails are recreated
// idempotently from the configured category list; dynamic rails are created
// once threshold conditions are met and thereafter only mutated or removed.
type DynamicRail struct {
	// ID is the rail identifier.
	ID string `json:"id"`

	// CategoryID is the category the rail tracks.
	CategoryID string `json:"category_id"`

	// Title and Emoji come from the rail metadata lookup table.
	Title string `json:"title"`
	Emoji string `json:"emoji"`

	// AffinityScore is the category's current normalized affinity.
	AffinityScore float64 `json:"affinity_score"`

	// SpawnedAt is when the rail first became active, in epoch ms.
	SpawnedAt int64 `json:"spawned_at"`

	// LastActiveAt is the last time an interaction touched the rail's
	// category, in epoch ms. Drives the sunset clock.
	LastActiveAt int64 `json:"last_active_at"`

	// IsCore marks rails derived from the fixed category list.
	IsCore bool `json:"is_core"`
}
