// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package seen provides the already-shown item filter and the
// deterministic daily shuffle.
//
// The Filter keeps a TTL-bounded record of item IDs that have been
// presented to the user so they are not immediately re-surfaced. The
// shuffle applies a date-seeded pseudo-random permutation: identical
// within one calendar day, different the next, never depending on
// ambient randomness.
package seen
