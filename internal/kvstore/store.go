// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package kvstore

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kvstore: key not found")

// ErrQuotaExceeded is returned by Set when the backing store is full.
// Callers treat this as non-fatal; personalization degrades to empty state.
var ErrQuotaExceeded = errors.New("kvstore: quota exceeded")

// Store is the minimal key-value contract the personalization core depends on.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)

	// Set stores value under key, overwriting any prior value.
	// May return ErrQuotaExceeded when the backend is full.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// Memory is an in-memory Store used for tests and as the per-session
// ephemeral store. The zero value is not usable; construct with NewMemory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string

	// failWrites simulates a quota-exceeded backend when true.
	failWrites bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns the value for key, or ErrNotFound.
func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites {
		return ErrQuotaExceeded
	}
	m.data[key] = value
	return nil
}

// Remove deletes key.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Clear removes all keys. Used to simulate the end of a browsing session.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
}

// FailWrites toggles quota-exceeded simulation for tests.
func (m *Memory) FailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failWrites = fail
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}

// Ensure Memory implements the interface.
var _ Store = (*Memory)(nil)
