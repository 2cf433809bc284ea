// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package votes implements the thumb up/down subsystem.
//
// A vote is both a UI state (at most one vote per event, re-voting replaces)
// and a strong affinity signal: every vote is forwarded into the interaction
// tracker as a vote-typed record, with an extra save-type record on
// thumbs-up so the scorer picks up the full weight of the signal.
// Down-voted event IDs form the veto set consumers use
// to suppress items from recommendation rails.
package votes

import (
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/eventide-app/eventide/internal/interactions"
	"github.com/eventide-app/eventide/internal/kvstore"
	"github.com/eventide-app/eventide/internal/metrics"
)

// Direction is a vote direction.
type Direction string

// Vote directions.
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Up || d == Down
}

// voteKey is the storage key for the vote map.
const voteKey = "votes"

// Record is one stored vote. At most one record exists per event ID.
type Record struct {
	EventID string    `json:"event_id"`
	Vote    Direction `json:"vote"`
	VotedAt int64     `json:"voted_at"`
}

// Recorder is the interaction sink votes feed into. Satisfied by
// *interactions.Tracker.
type Recorder interface {
	Record(typ interactions.Type, data interactions.Event)
}

// Registry stores votes and forwards derived interactions.
// It is safe for concurrent use.
type Registry struct {
	store    kvstore.Store
	recorder Recorder
	enabled  bool
	now      func() time.Time
	logger   zerolog.Logger

	mu sync.Mutex
}

// NewRegistry creates a vote registry. When enabled is false every
// operation is a no-op.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRegistry(store kvstore.Store, recorder Recorder, enabled bool, now func() time.Time, logger zerolog.Logger) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		store:    store,
		recorder: recorder,
		enabled:  enabled,
		now:      now,
		logger:   logger.With().Str("component", "votes").Logger(),
	}
}

// Vote sets the vote for eventID, replacing any prior vote, and forwards the
// derived interaction records. eventData carries category/price/venue context
// so the affinity scorer can attribute the signal.
func (r *Registry) Vote(eventID string, direction Direction, eventData interactions.Event) {
	if !r.enabled || eventID == "" || !direction.Valid() {
		return
	}

	r.mu.Lock()
	records := r.read()
	records[eventID] = Record{
		EventID: eventID,
		Vote:    direction,
		VotedAt: r.now().UnixMilli(),
	}
	r.write(records)
	r.mu.Unlock()

	metrics.VotesCast.WithLabelValues(string(direction)).Inc()
	r.forward(eventID, direction, eventData)
}

// Get returns the current vote for eventID, or "" when none exists.
func (r *Registry) Get(eventID string) Direction {
	if !r.enabled {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.read()[eventID]
	if !ok {
		return ""
	}
	return rec.Vote
}

// Toggle clears the vote when the same direction is repeated, otherwise
// sets or switches it. Returns the resulting direction ("" when cleared).
func (r *Registry) Toggle(eventID string, direction Direction, eventData interactions.Event) Direction {
	if !r.enabled || eventID == "" || !direction.Valid() {
		return ""
	}

	if r.Get(eventID) == direction {
		r.remove(eventID)
		return ""
	}

	r.Vote(eventID, direction, eventData)
	return direction
}

// DownvotedIDs returns the veto set: every event ID with a down vote.
func (r *Registry) DownvotedIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	if !r.enabled {
		return ids
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.read() {
		if rec.Vote == Down {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// remove deletes the vote record for eventID.
func (r *Registry) remove(eventID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.read()
	delete(records, eventID)
	r.write(records)
}

// forward feeds the vote into the interaction tracker: a vote-typed record,
// plus a save record on thumbs-up so the strong positive signal reaches the
// scorer.
func (r *Registry) forward(eventID string, direction Direction, eventData interactions.Event) {
	if r.recorder == nil {
		return
	}

	eventData.EventID = eventID

	typ := interactions.TypeVoteDown
	if direction == Up {
		typ = interactions.TypeVoteUp
	}
	r.recorder.Record(typ, eventData)

	if direction == Up {
		r.recorder.Record(interactions.TypeSave, eventData)
	}
}

// read loads the vote map; corrupt or missing data is empty state.
func (r *Registry) read() map[string]Record {
	raw, err := r.store.Get(voteKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			r.logger.Debug().Err(err).Msg("read votes failed")
		}
		return make(map[string]Record)
	}

	var records map[string]Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		r.logger.Warn().Err(err).Msg("corrupt vote store, resetting")
		return make(map[string]Record)
	}
	return records
}

// write persists the vote map; failures are non-fatal.
func (r *Registry) write(records map[string]Record) {
	data, err := json.Marshal(records)
	if err != nil {
		r.logger.Debug().Err(err).Msg("marshal votes failed")
		return
	}
	if err := r.store.Set(voteKey, string(data)); err != nil {
		r.logger.Debug().Err(err).Msg("persist votes failed")
	}
}
