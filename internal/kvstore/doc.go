// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package kvstore defines the key-value storage abstraction the
// personalization core is written against, plus its concrete bindings.
//
// The core never touches a storage backend directly. Every component takes a
// Store and treats it as a best-effort string-keyed blob store with the same
// semantics the client platform offers: synchronous get/set/remove that may
// fail on quota and must never take the caller down with it.
//
// Three bindings are provided:
//
//   - Memory: in-memory map, used by tests and as the ephemeral session
//     store. Supports failure injection so quota-exceeded paths are testable.
//   - Badger: durable embedded store for the server-side mirror, backed by
//     BadgerDB with optional per-write TTL.
//
// # Error Semantics
//
// Get returns ("", ErrNotFound) for missing keys. Set may return an error on
// quota or I/O failure; callers in the personalization core are expected to
// log and drop rather than propagate, matching the degrade-to-empty stance
// of the whole subsystem.
package kvstore
