// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package seen

import (
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"
)

// SeedForDate derives a shuffle seed from the calendar date of t and an
// optional city hint. Every call within one calendar day yields the same
// seed; the next day yields a different one, so presentation order is
// stable per day without ambient randomness.
func SeedForDate(t time.Time, city string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(t.Format("2006-01-02")))
	if city != "" {
		h.Write([]byte("|"))
		h.Write([]byte(strings.ToLower(city)))
	}
	return h.Sum64()
}

// Shuffle returns a seeded pseudo-random permutation of items. The input is
// not mutated. The same seed always produces the same permutation.
func Shuffle[T any](items []T, seed uint64) []T {
	out := make([]T, len(items))
	copy(out, items)

	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
