// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package interactions implements the append-only interaction log behind
// Eventide personalization.
//
// Every UI action (click, save, search, view, vote) is recorded as an Event.
// Writes go through a debounced in-memory queue so a burst of actions costs
// one storage write. Reads lazily purge entries older than the retention
// window and enforce the log cap, oldest first.
//
// Tracking is best-effort by design: a failed storage write drops the
// pending batch silently, and no error ever reaches the caller. The worst
// outcome of a broken store is "no personalization", never a broken feed.
package interactions

import "time"

// Type classifies a user interaction.
type Type string

// Interaction types, ordered roughly by signal strength.
const (
	TypeView     Type = "view"
	TypeClick    Type = "click"
	TypeSearch   Type = "search"
	TypeSave     Type = "save"
	TypeUnsave   Type = "unsave"
	TypeVoteUp   Type = "vote_up"
	TypeVoteDown Type = "vote_down"
)

// Valid reports whether t is a known interaction type.
func (t Type) Valid() bool {
	switch t {
	case TypeView, TypeClick, TypeSearch, TypeSave, TypeUnsave, TypeVoteUp, TypeVoteDown:
		return true
	default:
		return false
	}
}

// Event is one observed user action. Events are append-only; they are never
// mutated after creation and are destroyed only by age- or cap-based
// eviction, or an explicit privacy reset.
type Event struct {
	// Type classifies the action.
	Type Type `json:"type"`

	// EventID identifies the content item acted on, when applicable.
	EventID string `json:"event_id,omitempty"`

	// Category is the content category the action is attributed to.
	Category string `json:"category,omitempty"`

	// Query is the search text for search actions.
	Query string `json:"query,omitempty"`

	// Price is the item price in whatever currency the feed uses.
	// Nil when the action has no price context; zero means free.
	Price *float64 `json:"price,omitempty"`

	// Venue is a free-text venue identifier.
	Venue string `json:"venue,omitempty"`

	// Distance is the distance to the venue, when known.
	Distance float64 `json:"distance,omitempty"`

	// Timestamp is when the action occurred, in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`

	// SessionID groups actions within one browsing session.
	SessionID string `json:"session_id,omitempty"`
}

// Time returns the event timestamp as a time.Time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}
