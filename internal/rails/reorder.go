// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package rails

import (
	"math"
	"sort"

	"github.com/eventide-app/eventide/internal/affinity"
)

// lowAffinityThreshold is the score below which a rail qualifies for the
// discovery quota.
const lowAffinityThreshold = 0.3

// ReorderOptions configures Reorder.
type ReorderOptions struct {
	// DiscoveryFloor is the fraction of non-empty rail slots reserved for
	// low-affinity content.
	DiscoveryFloor float64
}

// Reorder produces the final rail order from the affinity profile and the
// per-rail inventory counts.
//
// Rails with no inventory never compete for placement: they are appended at
// the very end in their original order. The remaining rails are split into a
// personalized set (top scores) and a discovery set (scores below the
// low-affinity threshold, padded from the tail of the original order so the
// discovery quota is always met), then interleaved two personalized to one
// discovery.
//
// With no personalization signal the input is returned unchanged.
func Reorder(rows []Row, profile *affinity.Profile, inventory map[string]int, opts ReorderOptions) []Row {
	if profile == nil || profile.Empty() || len(rows) == 0 {
		return rows
	}

	nonEmpty, empty := partitionByInventory(rows, inventory)
	if len(nonEmpty) == 0 {
		return rows
	}

	// Score each placeable rail; absent categories default to zero.
	scored := make([]Row, len(nonEmpty))
	copy(scored, nonEmpty)
	for i := range scored {
		scored[i].Score = profile.Categories[scored[i].ID]
	}

	// Stable sort keeps original order on ties (lower index first).
	ranked := make([]Row, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	discoveryCount := int(math.Ceil(float64(len(ranked)) * opts.DiscoveryFloor))
	personalizedCount := len(ranked) - discoveryCount

	personalized := ranked[:personalizedCount]
	discovery := pickDiscovery(ranked[personalizedCount:], scored, personalized, discoveryCount)

	result := interleave(personalized, discovery)
	return append(result, empty...)
}

// partitionByInventory splits rows into placeable and empty sets,
// preserving original order in both.
func partitionByInventory(rows []Row, inventory map[string]int) (nonEmpty, empty []Row) {
	nonEmpty = make([]Row, 0, len(rows))
	empty = make([]Row, 0)
	for _, row := range rows {
		if inventory[row.ID] >= 1 {
			nonEmpty = append(nonEmpty, row)
		} else {
			empty = append(empty, row)
		}
	}
	return nonEmpty, empty
}

// pickDiscovery builds the discovery set: remaining rails scoring below the
// low-affinity threshold first, then rails taken from the tail of the
// original (unscored) order until the quota is met. The pad guarantees the
// quota even when sparse data leaves too few true low-affinity rails.
func pickDiscovery(remaining, original, personalized []Row, quota int) []Row {
	discovery := make([]Row, 0, quota)
	used := make(map[string]struct{}, len(personalized)+quota)
	for _, row := range personalized {
		used[row.ID] = struct{}{}
	}

	for _, row := range remaining {
		if len(discovery) == quota {
			break
		}
		if row.Score < lowAffinityThreshold {
			discovery = append(discovery, row)
			used[row.ID] = struct{}{}
		}
	}

	// Pad from the tail of the original order.
	for i := len(original) - 1; i >= 0 && len(discovery) < quota; i-- {
		row := original[i]
		if _, ok := used[row.ID]; ok {
			continue
		}
		discovery = append(discovery, row)
		used[row.ID] = struct{}{}
	}

	return discovery
}

// interleave emits two personalized rails, then one discovery rail,
// repeating until both sets drain. Either set may run out first; the other
// continues uninterrupted.
func interleave(personalized, discovery []Row) []Row {
	result := make([]Row, 0, len(personalized)+len(discovery))
	pi, di := 0, 0

	for pi < len(personalized) || di < len(discovery) {
		for n := 0; n < 2 && pi < len(personalized); n++ {
			result = append(result, personalized[pi])
			pi++
		}
		if di < len(discovery) {
			result = append(result, discovery[di])
			di++
		}
	}

	return result
}
