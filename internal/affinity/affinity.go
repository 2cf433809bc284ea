// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package affinity derives a normalized taste profile from the raw
// interaction log.
//
// Each interaction contributes weight(type) * 0.5^(age/halfLife) to every
// dimension it touches: category, price bucket, venue, and weekend/weekday
// time pattern. After accumulation each dimension map is max-normalized into
// [0,1], so the strongest signal in a dimension is always 1 once raw weight
// reaches the unit floor.
//
// The profile is derived state, never a source of truth; it is recomputed
// from the log on demand. A profile computed from zero interactions has all
// maps empty, which callers must treat as "no personalization available",
// not as an error.
package affinity

import (
	"math"
	"time"

	"github.com/eventide-app/eventide/internal/interactions"
	"github.com/eventide-app/eventide/internal/metrics"
)

// DefaultHalfLifeDays is the decay half-life used when the caller passes 0.
const DefaultHalfLifeDays = 30.0

// Interaction weights. Thumbs-up is the strongest positive signal and must
// exceed save; thumbs-down is a strong negative; unsave walks back a save.
const (
	weightView     = 0.5
	weightClick    = 1.0
	weightSearch   = 2.0
	weightSave     = 3.0
	weightVoteUp   = 4.0
	weightVoteDown = -3.0
	weightUnsave   = -1.5
)

// Price bucket labels.
const (
	BucketFree     = "free"
	BucketUnder25  = "under25"
	BucketUnder50  = "under50"
	BucketUnder100 = "under100"
	BucketOver100  = "over100"
)

// Time pattern labels.
const (
	PatternWeekend = "weekend"
	PatternWeekday = "weekday"
)

// Profile is the decayed, normalized multi-dimensional taste profile.
// All map values are in [0,1]; within each non-empty map the maximum value
// is 1 whenever raw accumulated weight reaches the unit divisor floor.
type Profile struct {
	// Categories scores per content category.
	Categories map[string]float64 `json:"categories"`

	// PriceRanges scores per price bucket.
	PriceRanges map[string]float64 `json:"price_ranges"`

	// Venues scores per venue identifier.
	Venues map[string]float64 `json:"venues"`

	// TimePatterns scores weekend vs weekday activity.
	TimePatterns map[string]float64 `json:"time_patterns"`

	// TotalInteractions is the number of inputs the profile was computed
	// from. Zero means no personalization signal exists.
	TotalInteractions int `json:"total_interactions"`
}

// Empty reports whether the profile carries no personalization signal.
func (p *Profile) Empty() bool {
	return p.TotalInteractions == 0
}

// Weight returns the fixed contribution weight for an interaction type.
func Weight(t interactions.Type) float64 {
	switch t {
	case interactions.TypeView:
		return weightView
	case interactions.TypeClick:
		return weightClick
	case interactions.TypeSearch:
		return weightSearch
	case interactions.TypeSave:
		return weightSave
	case interactions.TypeVoteUp:
		return weightVoteUp
	case interactions.TypeVoteDown:
		return weightVoteDown
	case interactions.TypeUnsave:
		return weightUnsave
	default:
		return 0
	}
}

// PriceBucket maps a price to its affinity bucket.
func PriceBucket(price float64) string {
	switch {
	case price <= 0:
		return BucketFree
	case price < 25:
		return BucketUnder25
	case price < 50:
		return BucketUnder50
	case price < 100:
		return BucketUnder100
	default:
		return BucketOver100
	}
}

// Compute derives a Profile from the interaction log. halfLifeDays controls
// the exponential decay; 0 selects DefaultHalfLifeDays. now anchors the age
// calculation so results are reproducible.
func Compute(events []interactions.Event, halfLifeDays float64, now time.Time) *Profile {
	start := time.Now()
	defer func() {
		metrics.AffinityComputeDuration.Observe(time.Since(start).Seconds())
	}()

	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	halfLife := time.Duration(halfLifeDays * 24 * float64(time.Hour))

	p := &Profile{
		Categories:   make(map[string]float64),
		PriceRanges:  make(map[string]float64),
		Venues:       make(map[string]float64),
		TimePatterns: make(map[string]float64),
	}

	for _, e := range events {
		w := Weight(e.Type)
		if w == 0 {
			continue
		}

		age := now.Sub(e.Time())
		if age < 0 {
			age = 0
		}
		w *= math.Pow(0.5, float64(age)/float64(halfLife))

		if e.Category != "" {
			p.Categories[e.Category] += w
		}
		if e.Price != nil {
			p.PriceRanges[PriceBucket(*e.Price)] += w
		}
		if e.Venue != "" {
			p.Venues[e.Venue] += w
		}

		day := e.Time().Weekday()
		if day == time.Saturday || day == time.Sunday {
			p.TimePatterns[PatternWeekend] += w
		} else {
			p.TimePatterns[PatternWeekday] += w
		}

		p.TotalInteractions++
	}

	normalize(p.Categories)
	normalize(p.PriceRanges)
	normalize(p.Venues)
	normalize(p.TimePatterns)

	return p
}

// normalize divides every value by the map maximum, with a unit floor on the
// divisor so sparse data never inflates, and clamps the result into [0,1].
// Dimensions driven net-negative floor at zero rather than going below it.
func normalize(m map[string]float64) {
	maxVal := 0.0
	for _, v := range m {
		if v > maxVal {
			maxVal = v
		}
	}

	divisor := math.Max(maxVal, 1)
	for k, v := range m {
		v /= divisor
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		m[k] = v
	}
}
