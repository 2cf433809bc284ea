// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package api exposes the personalization engine over HTTP using the Chi
// router.
//
// The surface mirrors what the rendering layer consumes: interaction
// tracking, affinity profiles, rail reordering, dynamic rail management,
// votes, the seen filter, and the cached feed loader. All endpoints
// degrade rather than fail: a disabled or broken subsystem yields neutral
// results, never a 5xx caused by personalization state.
package api
