// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/eventide-app/eventide/internal/config"
	"github.com/eventide-app/eventide/internal/feedcache"
	"github.com/eventide-app/eventide/internal/interactions"
	"github.com/eventide-app/eventide/internal/kvstore"
	"github.com/eventide-app/eventide/internal/logging"
	"github.com/eventide-app/eventide/internal/rails"
	"github.com/eventide-app/eventide/internal/seen"
	"github.com/eventide-app/eventide/internal/votes"
)

// newTestServer wires a full engine over in-memory stores and returns the
// HTTP handler.
func newTestServer(t *testing.T, fetch feedcache.Fetcher) http.Handler {
	t.Helper()

	cfg := config.Default()
	cfg.Personalization.Enabled = true
	cfg.Personalization.DebounceWindow = time.Millisecond
	cfg.Votes.Enabled = true
	cfg.Rails.DynamicEnabled = true
	cfg.Cache.Enabled = true

	logger := logging.NewTestLogger(io.Discard)
	store := kvstore.NewMemory()
	session := kvstore.NewMemory()

	tracker := interactions.NewTracker(store, session, interactions.Options{
		Enabled:        true,
		MaxEvents:      cfg.Personalization.MaxEvents,
		MaxAge:         time.Duration(cfg.Personalization.MaxAgeDays) * 24 * time.Hour,
		DebounceWindow: cfg.Personalization.DebounceWindow,
	}, logger)
	registry := votes.NewRegistry(store, tracker, true, nil, logger)
	manager := rails.NewManager(store, rails.ManagerOptions{
		Enabled:        true,
		CoreLimit:      cfg.Rails.CoreLimit,
		DynamicLimit:   cfg.Rails.DynamicLimit,
		SpawnThreshold: cfg.Rails.SpawnThreshold,
		MinInventory:   cfg.Rails.MinInventory,
		SunsetAfter:    time.Duration(cfg.Rails.SunsetDays) * 24 * time.Hour,
	}, logger)
	filter := seen.NewFilter(store, seen.FilterOptions{Enabled: true}, logger)
	cache := feedcache.NewCache(store, feedcache.CacheOptions{
		Enabled: true,
		Cap:     cfg.Cache.MaxEvents,
	}, logger)
	if fetch == nil {
		fetch = func(context.Context, string, string, int) ([]feedcache.Event, error) {
			return []feedcache.Event{}, nil
		}
	}
	loader := feedcache.NewLoader(cache, filter, fetch, feedcache.LoaderOptions{}, logger)

	h := NewHandler(cfg, tracker, registry, manager, filter, loader, logger)
	return NewRouter(cfg, h, logger)
}

func doJSON(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestTrackAndReadInteractions(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/track",
		`{"type":"click","data":{"event_id":"e1","category":"music"}}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /track status = %d, want 202: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/interactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /interactions status = %d", rec.Code)
	}

	var resp struct {
		SessionID    string               `json:"session_id"`
		Interactions []interactions.Event `json:"interactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Interactions) != 1 {
		t.Fatalf("interactions = %d, want 1", len(resp.Interactions))
	}
	if resp.Interactions[0].Category != "music" {
		t.Errorf("category = %q, want music", resp.Interactions[0].Category)
	}
	if resp.SessionID == "" {
		t.Error("session_id is empty")
	}
}

func TestTrackRejectsUnknownType(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/track", `{"type":"hover","data":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestClearInteractions(t *testing.T) {
	srv := newTestServer(t, nil)

	doJSON(t, srv, http.MethodPost, "/api/v1/track", `{"type":"save","data":{"category":"food"}}`)
	rec := doJSON(t, srv, http.MethodDelete, "/api/v1/interactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/interactions", "")
	var resp struct {
		Interactions []interactions.Event `json:"interactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Interactions) != 0 {
		t.Errorf("interactions after clear = %d, want 0", len(resp.Interactions))
	}
}

func TestAffinityFromVotes(t *testing.T) {
	srv := newTestServer(t, nil)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/votes",
			`{"event_id":"e`+string(rune('1'+i))+`","direction":"up","data":{"category":"music"}}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("POST /votes status = %d: %s", rec.Code, rec.Body)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/affinity", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /affinity status = %d", rec.Code)
	}

	var profile struct {
		Categories        map[string]float64 `json:"categories"`
		TotalInteractions int                `json:"total_interactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if profile.Categories["music"] != 1 {
		t.Errorf("categories.music = %v, want 1", profile.Categories["music"])
	}
	if len(profile.Categories) != 1 {
		t.Errorf("categories = %v, want only music", profile.Categories)
	}
}

func TestVoteToggleClears(t *testing.T) {
	srv := newTestServer(t, nil)

	doJSON(t, srv, http.MethodPost, "/api/v1/votes",
		`{"event_id":"e1","direction":"down","toggle":true,"data":{}}`)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/votes",
		`{"event_id":"e1","direction":"down","toggle":true,"data":{}}`)

	var resp struct {
		Vote string `json:"vote"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Vote != "" {
		t.Errorf("vote after double toggle = %q, want cleared", resp.Vote)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/votes/e1", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Vote != "" {
		t.Errorf("GET vote = %q, want empty", resp.Vote)
	}
}

func TestVoteExclusivity(t *testing.T) {
	srv := newTestServer(t, nil)

	doJSON(t, srv, http.MethodPost, "/api/v1/votes", `{"event_id":"e1","direction":"up","data":{}}`)
	doJSON(t, srv, http.MethodPost, "/api/v1/votes", `{"event_id":"e1","direction":"down","data":{}}`)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/votes/e1", "")
	var resp struct {
		Vote string `json:"vote"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Vote != "down" {
		t.Errorf("vote = %q, want down", resp.Vote)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/votes/downvoted", "")
	var veto struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &veto); err != nil {
		t.Fatal(err)
	}
	if len(veto.IDs) != 1 || veto.IDs[0] != "e1" {
		t.Errorf("downvoted ids = %v, want [e1]", veto.IDs)
	}
}

func TestReorderPassthroughWithoutSignal(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rails/reorder",
		`{"rows":[{"id":"a"},{"id":"b"}],"inventory":{"a":3,"b":3}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Rows []rails.Row `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Rows) != 2 || resp.Rows[0].ID != "a" || resp.Rows[1].ID != "b" {
		t.Errorf("rows = %v, want passthrough [a b]", resp.Rows)
	}
}

func TestDynamicRailsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	// Three up-votes pin jazz affinity at 1.0, clearing the spawn
	// threshold.
	for _, id := range []string{"j1", "j2", "j3"} {
		doJSON(t, srv, http.MethodPost, "/api/v1/votes",
			`{"event_id":"`+id+`","direction":"up","data":{"category":"jazz"}}`)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rails/dynamic",
		`{"core":[{"id":"music","title":"Music"}],"inventory":{"jazz":6}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Rails []rails.DynamicRail `json:"rails"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	var jazz *rails.DynamicRail
	for i := range resp.Rails {
		if resp.Rails[i].CategoryID == "jazz" {
			jazz = &resp.Rails[i]
		}
	}
	if jazz == nil {
		t.Fatalf("no jazz rail in %v", resp.Rails)
	}
	if jazz.IsCore {
		t.Error("jazz rail IsCore = true, want dynamic")
	}
}

func TestFeedSuppressesDownvoted(t *testing.T) {
	fetch := func(context.Context, string, string, int) ([]feedcache.Event, error) {
		return []feedcache.Event{{ID: "good"}, {ID: "bad"}}, nil
	}
	srv := newTestServer(t, fetch)

	doJSON(t, srv, http.MethodPost, "/api/v1/votes", `{"event_id":"bad","direction":"down","data":{}}`)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/feed?category=music&location=portland", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Events []feedcache.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != "good" {
		t.Errorf("events = %v, want only the non-vetoed event", resp.Events)
	}
}

func TestFeedRequiresCategory(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/feed", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMarkSeenEndpoint(t *testing.T) {
	fetch := func(context.Context, string, string, int) ([]feedcache.Event, error) {
		return []feedcache.Event{{ID: "a"}, {ID: "b"}}, nil
	}
	srv := newTestServer(t, fetch)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/seen", `{"ids":["a"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /seen status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/feed?category=music", "")
	var resp struct {
		Events []feedcache.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != "b" {
		t.Errorf("events = %v, want seen item filtered", resp.Events)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		rec := doJSON(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want 200", rec.Code)
	}
}
