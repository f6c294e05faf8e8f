// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and TOURBOARD_* env vars.
// - Errors returned by Load and Validate wrap this package's sentinels.
package config

import (
	"runtime"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the fact and snapshot store: memory or postgres.
	StoreDriver string `koanf:"store_driver"`

	// DatabaseDSN is the postgres connection string.
	DatabaseDSN string `koanf:"database_dsn"`

	// QueueSize bounds the in-memory snapshot job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of snapshot workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the set of in-flight snapshot job claims.
	DedupeSize int `koanf:"dedupe_size"`

	// JobTimeout bounds a single snapshot job.
	JobTimeout time.Duration `koanf:"job_timeout"`

	// MaxStandingsLimit caps GET /standings/{scope}?limit.
	MaxStandingsLimit int `koanf:"max_standings_limit"`

	// SnapshotInterval schedules snapshots of every catalog scope. Zero
	// disables the scheduler.
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`

	// SeedPlayers and SeedEvents size the demo data generated for the
	// memory driver. Zero disables seeding.
	SeedPlayers int   `koanf:"seed_players"`
	SeedEvents  int   `koanf:"seed_events"`
	Seed        int64 `koanf:"seed"`

	// Scopes is the named scope catalog.
	Scopes []ScopeConfig `koanf:"scopes"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		StoreDriver:       DriverMemory,
		QueueSize:         1024,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        10_000,
		JobTimeout:        2 * time.Minute,
		MaxStandingsLimit: 500,
		SnapshotInterval:  24 * time.Hour,
		SeedPlayers:       200,
		SeedEvents:        60,
		Seed:              42,
		Scopes:            DefaultScopes(),
	}
}

// DefaultScopes is the catalog used when none is configured.
func DefaultScopes() []ScopeConfig {
	return []ScopeConfig{
		{
			Key:           "all-time",
			Name:          "All-time leaderboard",
			AllTime:       true,
			ScoringMethod: "cumulative",
		},
		{
			Key:            "high-roller",
			Name:           "All-time high roller",
			AllTime:        true,
			HighRollerOnly: true,
			ScoringMethod:  "best_x",
			Cap:            10,
			BonusRules: []BonusRuleConfig{
				{Kind: "back_to_back_wins", Points: 5},
			},
		},
		{
			Key:           "low-stakes",
			Name:          "Low stakes (buy-in under 500)",
			AllTime:       true,
			MaxBuyIn:      "500",
			ScoringMethod: "best_x",
			Cap:           20,
			BonusRules: []BonusRuleConfig{
				{Kind: "participation_after_cap", Points: 1},
			},
		},
	}
}
