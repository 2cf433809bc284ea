// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Command server runs the Eventide personalization engine as a client-local
// sidecar: it tracks interactions, computes taste profiles, manages rails,
// and fronts the upstream event source with a cache-and-merge layer.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventide-app/eventide/internal/api"
	"github.com/eventide-app/eventide/internal/config"
	"github.com/eventide-app/eventide/internal/feedcache"
	"github.com/eventide-app/eventide/internal/interactions"
	"github.com/eventide-app/eventide/internal/kvstore"
	"github.com/eventide-app/eventide/internal/logging"
	"github.com/eventide-app/eventide/internal/rails"
	"github.com/eventide-app/eventide/internal/seen"
	"github.com/eventide-app/eventide/internal/supervisor"
	"github.com/eventide-app/eventide/internal/votes"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger := logging.Logger()
	logger.Info().Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).Msg("starting eventide")

	db, err := kvstore.OpenBadger(cfg.Storage.Dir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("closing storage failed")
		}
	}()

	// Durable state shares one DB under per-component prefixes; session
	// state is memory-only so it resets with the process, matching
	// per-session semantics.
	store := kvstore.NewBadger(db, "engine:", 0)
	session := kvstore.NewMemory()

	tracker := interactions.NewTracker(store, session, interactions.Options{
		Enabled:        cfg.Personalization.Enabled,
		MaxEvents:      cfg.Personalization.MaxEvents,
		MaxAge:         time.Duration(cfg.Personalization.MaxAgeDays) * 24 * time.Hour,
		DebounceWindow: cfg.Personalization.DebounceWindow,
	}, logger)
	defer tracker.Flush()

	voteRegistry := votes.NewRegistry(store, tracker, cfg.Votes.Enabled, nil, logger)

	manager := rails.NewManager(store, rails.ManagerOptions{
		Enabled:        cfg.Rails.DynamicEnabled,
		CoreLimit:      cfg.Rails.CoreLimit,
		DynamicLimit:   cfg.Rails.DynamicLimit,
		SpawnThreshold: cfg.Rails.SpawnThreshold,
		MinInventory:   cfg.Rails.MinInventory,
		SunsetAfter:    time.Duration(cfg.Rails.SunsetDays) * 24 * time.Hour,
	}, logger)

	filter := seen.NewFilter(store, seen.FilterOptions{
		Enabled: cfg.Personalization.Enabled,
		TTL:     time.Duration(cfg.Seen.TTLDays) * 24 * time.Hour,
	}, logger)

	cache := feedcache.NewCache(store, feedcache.CacheOptions{
		Enabled: cfg.Cache.Enabled,
		TTL:     time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
		Cap:     cfg.Cache.MaxEvents,
	}, logger)

	fetch := feedcache.Fetcher(feedcache.NullFetcher)
	if cfg.Upstream.BaseURL != "" {
		fetch = feedcache.NewHTTPFetcher(cfg.Upstream.BaseURL, &http.Client{Timeout: cfg.Upstream.Timeout})
	} else {
		logger.Warn().Msg("no upstream configured, feeds serve cache only")
	}
	loader := feedcache.NewLoader(cache, filter, fetch, feedcache.LoaderOptions{
		FetchLimit:              cfg.Upstream.FetchLimit,
		FetchesPerMinute:        cfg.Cache.FetchesPerMinute,
		BreakerFailureThreshold: cfg.Cache.BreakerFailureThreshold,
		BreakerCooldown:         cfg.Cache.BreakerCooldown,
		RefreshTimeout:          cfg.Upstream.Timeout,
	}, logger)

	handler := api.NewHandler(cfg, tracker, voteRegistry, manager, filter, loader, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(cfg, handler, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddStorageService(supervisor.NewGCService(db, 10*time.Minute, logger))
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
