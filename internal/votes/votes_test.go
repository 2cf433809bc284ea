// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package votes

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventide-app/eventide/internal/interactions"
	"github.com/eventide-app/eventide/internal/kvstore"
)

// captureRecorder collects forwarded interactions.
type captureRecorder struct {
	recorded []interactions.Event
}

func (c *captureRecorder) Record(typ interactions.Type, data interactions.Event) {
	data.Type = typ
	c.recorded = append(c.recorded, data)
}

func newTestRegistry(enabled bool) (*Registry, *captureRecorder, *kvstore.Memory) {
	store := kvstore.NewMemory()
	rec := &captureRecorder{}
	now := func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return NewRegistry(store, rec, enabled, now, zerolog.Nop()), rec, store
}

func TestRegistry_VoteExclusivity(t *testing.T) {
	r, _, _ := newTestRegistry(true)

	r.Vote("e1", Up, interactions.Event{Category: "music"})
	r.Vote("e1", Down, interactions.Event{Category: "music"})

	if got := r.Get("e1"); got != Down {
		t.Errorf("Get() = %q, want %q after up-then-down", got, Down)
	}

	// Exactly one record survives.
	ids := r.DownvotedIDs()
	if len(ids) != 1 {
		t.Errorf("DownvotedIDs() has %d entries, want 1", len(ids))
	}
	if _, ok := ids["e1"]; !ok {
		t.Error("e1 missing from veto set")
	}
}

func TestRegistry_Toggle(t *testing.T) {
	r, _, _ := newTestRegistry(true)

	if got := r.Toggle("e1", Up, interactions.Event{}); got != Up {
		t.Errorf("first toggle = %q, want up", got)
	}
	if got := r.Toggle("e1", Up, interactions.Event{}); got != "" {
		t.Errorf("second toggle same direction = %q, want cleared", got)
	}
	if got := r.Get("e1"); got != "" {
		t.Errorf("Get() after double toggle = %q, want none", got)
	}

	// Switching direction replaces rather than clears.
	r.Toggle("e1", Up, interactions.Event{})
	if got := r.Toggle("e1", Down, interactions.Event{}); got != Down {
		t.Errorf("toggle to opposite = %q, want down", got)
	}
}

func TestRegistry_ForwardsInteractions(t *testing.T) {
	r, rec, _ := newTestRegistry(true)

	r.Vote("e1", Up, interactions.Event{Category: "jazz"})

	// Thumbs-up forwards a vote record plus a save record.
	if len(rec.recorded) != 2 {
		t.Fatalf("recorded %d interactions, want 2", len(rec.recorded))
	}
	if rec.recorded[0].Type != interactions.TypeVoteUp {
		t.Errorf("first forwarded type = %s, want vote_up", rec.recorded[0].Type)
	}
	if rec.recorded[1].Type != interactions.TypeSave {
		t.Errorf("second forwarded type = %s, want save", rec.recorded[1].Type)
	}
	if rec.recorded[0].EventID != "e1" || rec.recorded[0].Category != "jazz" {
		t.Error("forwarded record lost event context")
	}

	rec.recorded = nil
	r.Vote("e2", Down, interactions.Event{Category: "jazz"})

	// Thumbs-down forwards only the vote record.
	if len(rec.recorded) != 1 {
		t.Fatalf("recorded %d interactions for downvote, want 1", len(rec.recorded))
	}
	if rec.recorded[0].Type != interactions.TypeVoteDown {
		t.Errorf("downvote forwarded type = %s, want vote_down", rec.recorded[0].Type)
	}
}

func TestRegistry_DisabledIsNoOp(t *testing.T) {
	r, rec, store := newTestRegistry(false)

	r.Vote("e1", Up, interactions.Event{})
	if got := r.Get("e1"); got != "" {
		t.Errorf("Get() on disabled registry = %q, want none", got)
	}
	if got := r.Toggle("e1", Down, interactions.Event{}); got != "" {
		t.Errorf("Toggle() on disabled registry = %q, want none", got)
	}
	if len(r.DownvotedIDs()) != 0 {
		t.Error("DownvotedIDs() on disabled registry should be empty")
	}
	if len(rec.recorded) != 0 {
		t.Error("disabled registry forwarded interactions")
	}
	if store.Len() != 0 {
		t.Error("disabled registry wrote to storage")
	}
}

func TestRegistry_CorruptStoreTreatedAsEmpty(t *testing.T) {
	r, _, store := newTestRegistry(true)
	_ = store.Set("votes", "][")

	if got := r.Get("e1"); got != "" {
		t.Errorf("Get() over corrupt store = %q, want none", got)
	}

	r.Vote("e1", Up, interactions.Event{})
	if got := r.Get("e1"); got != Up {
		t.Errorf("Get() after recovery = %q, want up", got)
	}
}

func TestRegistry_InvalidInputsIgnored(t *testing.T) {
	r, rec, _ := newTestRegistry(true)

	r.Vote("", Up, interactions.Event{})
	r.Vote("e1", Direction("sideways"), interactions.Event{})

	if len(rec.recorded) != 0 {
		t.Error("invalid votes should not forward interactions")
	}
}
