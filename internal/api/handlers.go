// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/eventide-app/eventide/internal/affinity"
	"github.com/eventide-app/eventide/internal/config"
	"github.com/eventide-app/eventide/internal/feedcache"
	"github.com/eventide-app/eventide/internal/interactions"
	"github.com/eventide-app/eventide/internal/rails"
	"github.com/eventide-app/eventide/internal/seen"
	"github.com/eventide-app/eventide/internal/votes"
)

// Handler bundles the engine components behind the HTTP surface.
type Handler struct {
	cfg      *config.Config
	tracker  *interactions.Tracker
	votes    *votes.Registry
	manager  *rails.Manager
	filter   *seen.Filter
	loader   *feedcache.Loader
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

// NewHandler creates the API handler over the engine components.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(
	cfg *config.Config,
	tracker *interactions.Tracker,
	voteRegistry *votes.Registry,
	manager *rails.Manager,
	filter *seen.Filter,
	loader *feedcache.Loader,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		cfg:      cfg,
		tracker:  tracker,
		votes:    voteRegistry,
		manager:  manager,
		filter:   filter,
		loader:   loader,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "api").Logger(),
		now:      time.Now,
	}
}

// trackRequest is the body of POST /track.
type trackRequest struct {
	Type string             `json:"type" validate:"required"`
	Data interactions.Event `json:"data"`
}

// Track records one interaction.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	typ := interactions.Type(req.Type)
	if !typ.Valid() {
		respondError(w, http.StatusBadRequest, "unknown interaction type")
		return
	}

	h.tracker.Record(typ, req.Data)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// Interactions returns the full persisted interaction log.
func (h *Handler) Interactions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id":   h.tracker.SessionID(),
		"interactions": h.tracker.ReadAll(),
	})
}

// ClearInteractions wipes the interaction log and session identity.
func (h *Handler) ClearInteractions(w http.ResponseWriter, _ *http.Request) {
	h.tracker.ClearAll()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Affinity computes and returns the current taste profile.
func (h *Handler) Affinity(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.profile())
}

// reorderRequest is the body of POST /rails/reorder.
type reorderRequest struct {
	Rows      []rails.Row    `json:"rows" validate:"required"`
	Inventory map[string]int `json:"inventory"`
}

// ReorderRails reorders the given rail rows against the current profile.
func (h *Handler) ReorderRails(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ordered := rails.Reorder(req.Rows, h.profile(), req.Inventory, rails.ReorderOptions{
		DiscoveryFloor: h.cfg.Rails.DiscoveryFloor,
	})
	respondJSON(w, http.StatusOK, map[string]any{"rows": ordered})
}

// dynamicRailsRequest is the body of POST /rails/dynamic.
type dynamicRailsRequest struct {
	Core      []rails.CoreCategory `json:"core" validate:"required"`
	Inventory map[string]int       `json:"inventory"`
}

// DynamicRails runs one rail lifecycle pass and returns the active list.
func (h *Handler) DynamicRails(w http.ResponseWriter, r *http.Request) {
	var req dynamicRailsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := h.tracker.ReadAll()
	active := h.manager.Manage(req.Core, h.profileFrom(events), req.Inventory, events)
	respondJSON(w, http.StatusOK, map[string]any{"rails": active})
}

// voteRequest is the body of POST /votes.
type voteRequest struct {
	EventID   string             `json:"event_id" validate:"required"`
	Direction string             `json:"direction" validate:"required,oneof=up down"`
	Toggle    bool               `json:"toggle"`
	Data      interactions.Event `json:"data"`
}

// Vote casts, switches, or (in toggle mode) clears a vote.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	direction := votes.Direction(req.Direction)
	result := direction
	if req.Toggle {
		result = h.votes.Toggle(req.EventID, direction, req.Data)
	} else {
		h.votes.Vote(req.EventID, direction, req.Data)
	}
	respondJSON(w, http.StatusOK, map[string]string{"vote": string(result)})
}

// GetVote returns the current vote for one event ID.
func (h *Handler) GetVote(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	respondJSON(w, http.StatusOK, map[string]string{
		"event_id": eventID,
		"vote":     string(h.votes.Get(eventID)),
	})
}

// DownvotedIDs returns the veto set as an ID list.
func (h *Handler) DownvotedIDs(w http.ResponseWriter, _ *http.Request) {
	set := h.votes.DownvotedIDs()
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	respondJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

// markSeenRequest is the body of POST /seen.
type markSeenRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// MarkSeen records item IDs as shown.
func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	var req markSeenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.filter.MarkSeen(req.IDs...)
	respondJSON(w, http.StatusOK, map[string]string{"status": "marked"})
}

// Feed serves the cached-then-refreshed feed for a category and location,
// with down-voted events suppressed.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		respondError(w, http.StatusBadRequest, "category is required")
		return
	}
	location := r.URL.Query().Get("location")

	events, err := h.loader.Load(r.Context(), category, location)
	if err != nil {
		h.logger.Debug().Err(err).Str("category", category).Msg("feed load failed with no cache")
	}

	vetoed := h.votes.DownvotedIDs()
	served := make([]feedcache.Event, 0, len(events))
	for _, e := range events {
		if _, ok := vetoed[e.ID]; ok {
			continue
		}
		served = append(served, e)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"events":   served,
	})
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady reports readiness; storage is exercised through the tracker.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"session_id": h.tracker.SessionID(),
	})
}

// profile computes the affinity profile from the full interaction log.
func (h *Handler) profile() *affinity.Profile {
	return h.profileFrom(h.tracker.ReadAll())
}

func (h *Handler) profileFrom(events []interactions.Event) *affinity.Profile {
	return affinity.Compute(events, h.cfg.Personalization.HalfLifeDays, h.now())
}
