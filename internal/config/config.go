// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package config loads and validates Eventide configuration.
//
// Configuration is layered with clear precedence: environment variables
// override the optional YAML config file, which overrides built-in defaults.
// Feature flags live here and nowhere else; no component reads the
// environment at call time, so behavior is reproducible in tests.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Eventide personalization service.
type Config struct {
	Server          ServerConfig          `koanf:"server"`
	Log             LogConfig             `koanf:"log"`
	Storage         StorageConfig         `koanf:"storage"`
	Personalization PersonalizationConfig `koanf:"personalization"`
	Votes           VotesConfig           `koanf:"votes"`
	Rails           RailsConfig           `koanf:"rails"`
	Seen            SeenConfig            `koanf:"seen"`
	Cache           CacheConfig           `koanf:"cache"`
	Upstream        UpstreamConfig        `koanf:"upstream"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Host is the bind address. Default: 127.0.0.1 (client-local sidecar).
	Host string `koanf:"host"`

	// Port is the listen port. Default: 8480.
	Port int `koanf:"port" validate:"gte=1,lte=65535"`

	// CORSOrigins lists allowed origins for the rendering client.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitPerMinute caps requests per client IP. Default: 600.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute" validate:"gte=1"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is the minimum log level. Default: info.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`

	// Format is json or console. Default: json.
	Format string `koanf:"format" validate:"oneof=json console"`
}

// StorageConfig controls the durable key-value backend.
type StorageConfig struct {
	// Dir is the BadgerDB directory. Default: /data/eventide.
	Dir string `koanf:"dir" validate:"required"`
}

// PersonalizationConfig controls the interaction tracker and affinity scorer.
type PersonalizationConfig struct {
	// Enabled gates all interaction tracking and affinity scoring.
	Enabled bool `koanf:"enabled"`

	// HalfLifeDays is the decay half-life for affinity contributions.
	// Default: 30.
	HalfLifeDays float64 `koanf:"half_life_days" validate:"gt=0"`

	// MaxEvents caps the interaction log; oldest entries are evicted first.
	// Default: 500.
	MaxEvents int `koanf:"max_events" validate:"gte=1"`

	// MaxAgeDays is the retention window; older entries are purged lazily
	// on read. Default: 90.
	MaxAgeDays int `koanf:"max_age_days" validate:"gte=1"`

	// DebounceWindow batches tracker writes. Default: 500ms.
	DebounceWindow time.Duration `koanf:"debounce_window" validate:"gt=0"`
}

// VotesConfig controls the vote/veto subsystem.
type VotesConfig struct {
	// Enabled gates voting; when off, all vote operations are no-ops.
	Enabled bool `koanf:"enabled"`
}

// RailsConfig controls rail reordering and the dynamic rail lifecycle.
type RailsConfig struct {
	// DynamicEnabled gates dynamic rail spawning; when off,
	// rail management returns an empty list.
	DynamicEnabled bool `koanf:"dynamic_enabled"`

	// DiscoveryFloor is the fraction of rail slots reserved for
	// low-affinity content. Default: 0.25.
	DiscoveryFloor float64 `koanf:"discovery_floor" validate:"gte=0,lte=1"`

	// CoreLimit caps core rails. Default: 8.
	CoreLimit int `koanf:"core_limit" validate:"gte=1"`

	// DynamicLimit caps concurrently active dynamic rails. Default: 3.
	DynamicLimit int `koanf:"dynamic_limit" validate:"gte=1"`

	// SpawnThreshold is the minimum affinity score for a dynamic rail
	// candidate. Default: 0.4.
	SpawnThreshold float64 `koanf:"spawn_threshold" validate:"gte=0,lte=1"`

	// MinInventory is the minimum available events before a dynamic rail
	// may spawn. Default: 4.
	MinInventory int `koanf:"min_inventory" validate:"gte=1"`

	// SunsetDays is the inactivity window after which a dynamic rail is
	// retired. Default: 14.
	SunsetDays int `koanf:"sunset_days" validate:"gte=1"`
}

// SeenConfig controls the already-shown item filter.
type SeenConfig struct {
	// TTLDays is the window during which a seen item stays suppressed.
	// Default: 14.
	TTLDays int `koanf:"ttl_days" validate:"gte=1"`
}

// CacheConfig controls the feed cache and merge layer.
type CacheConfig struct {
	// Enabled gates cache reads; writes still happen so the cache warms.
	Enabled bool `koanf:"enabled"`

	// TTLMinutes is the freshness window for a cache entry. Default: 30.
	TTLMinutes int `koanf:"ttl_minutes" validate:"gte=1"`

	// MaxEvents caps the events stored per cache entry. Default: 50.
	MaxEvents int `koanf:"max_events" validate:"gte=1"`

	// FetchesPerMinute rate-limits upstream fetches per cache key.
	// Default: 6.
	FetchesPerMinute int `koanf:"fetches_per_minute" validate:"gte=1"`

	// BreakerFailureThreshold is the consecutive-failure count that opens
	// the upstream fetch circuit breaker. Default: 5.
	BreakerFailureThreshold uint32 `koanf:"breaker_failure_threshold" validate:"gte=1"`

	// BreakerCooldown is how long the breaker stays open. Default: 60s.
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

// UpstreamConfig points at the external event source. With no base URL the
// loader serves cache only; feeds start empty until an upstream is wired.
type UpstreamConfig struct {
	// BaseURL is the event source root, e.g. https://events.example.com.
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`

	// Timeout bounds each upstream request. Default: 10s.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// FetchLimit is the maximum events requested per fetch. Default: 50.
	FetchLimit int `koanf:"fetch_limit" validate:"gte=1"`
}

// Default returns a Config with all default values applied.
// Defaults favor a fully-enabled client-local deployment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8480,
			CORSOrigins:        []string{"http://localhost:3000"},
			RateLimitPerMinute: 600,
			ShutdownTimeout:    10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Dir: "/data/eventide",
		},
		Personalization: PersonalizationConfig{
			Enabled:        true,
			HalfLifeDays:   30,
			MaxEvents:      500,
			MaxAgeDays:     90,
			DebounceWindow: 500 * time.Millisecond,
		},
		Votes: VotesConfig{
			Enabled: true,
		},
		Rails: RailsConfig{
			DynamicEnabled: true,
			DiscoveryFloor: 0.25,
			CoreLimit:      8,
			DynamicLimit:   3,
			SpawnThreshold: 0.4,
			MinInventory:   4,
			SunsetDays:     14,
		},
		Seen: SeenConfig{
			TTLDays: 14,
		},
		Cache: CacheConfig{
			Enabled:                 true,
			TTLMinutes:              30,
			MaxEvents:               50,
			FetchesPerMinute:        6,
			BreakerFailureThreshold: 5,
			BreakerCooldown:         60 * time.Second,
		},
		Upstream: UpstreamConfig{
			Timeout:    10 * time.Second,
			FetchLimit: 50,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	// Cross-field check the tag language can't express.
	if c.Rails.DiscoveryFloor > 0.5 {
		return fmt.Errorf("config validation: rails.discovery_floor %.2f > 0.5 would starve personalized slots", c.Rails.DiscoveryFloor)
	}

	return nil
}
