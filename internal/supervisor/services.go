// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// HTTPService runs an http.Server under supervision.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

var _ suture.Service = (*HTTPService)(nil)

// NewHTTPService wraps srv for the supervisor tree.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPService(srv *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{
		server:          srv,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("component", "http").Logger(),
	}
}

// Serve implements suture.Service: it listens until ctx is cancelled, then
// shuts down gracefully within the configured timeout.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("http shutdown incomplete")
		}
		<-errCh
		return ctx.Err()
	}
}

// GCService periodically runs BadgerDB value-log garbage collection.
type GCService struct {
	db       *badger.DB
	interval time.Duration
	logger   zerolog.Logger
}

var _ suture.Service = (*GCService)(nil)

// NewGCService creates the storage maintenance loop.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGCService(db *badger.DB, interval time.Duration, logger zerolog.Logger) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{
		db:       db,
		interval: interval,
		logger:   logger.With().Str("component", "storage-gc").Logger(),
	}
}

// Serve implements suture.Service.
func (s *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Repeat until nothing is left to rewrite.
			for {
				err := s.db.RunValueLogGC(0.5)
				if err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						s.logger.Debug().Err(err).Msg("value log gc failed")
					}
					break
				}
			}
		}
	}
}
