// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package rails orders the category rows ("rails") of the Eventide feed and
// manages the lifecycle of taste-derived dynamic rails.
//
// Two concerns live here:
//
//   - Reorder blends top-affinity rails with deliberately injected
//     low-affinity "discovery" rails. A pure score sort would create a
//     filter bubble; the discovery quota actively surfaces categories the
//     user has shown little interest in, not merely categories with no
//     data.
//
//   - Manager is a small state machine (absent -> active -> sunset) that
//     spawns a dynamic rail once a category clears both an affinity
//     threshold and an inventory floor, and retires it after a configurable
//     inactivity window. The manager checkpoints its full rail list so
//     repeated invocations are idempotent absent new signal.
package rails
