package service

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/tourboard/internal/adapters/repository"
	"github.com/okian/tourboard/internal/adapters/repository/postgres"
	"github.com/okian/tourboard/internal/config"
	"github.com/okian/tourboard/internal/seed"
	"github.com/okian/tourboard/pkg/logger"
)

// seedSpan is how far back generated demo events reach.
const seedSpan = 365 * 24 * time.Hour

// Stores bundles the stores selected by configuration.
type Stores struct {
	Facts     repository.FactStore
	Writer    repository.FactWriter
	Snapshots repository.SnapshotStore

	// DB is the postgres handle, nil for the memory driver.
	DB *bun.DB
}

// Close releases the database handle, if any.
func (s *Stores) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// OpenStores opens the store driver named by cfg. The memory driver is
// filled with generated demo data when cfg asks for it.
func OpenStores(ctx context.Context, cfg *config.Config, l logger.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		st := postgres.New(db, postgres.WithLogger(l.Named("postgres")))
		return &Stores{Facts: st, Writer: st, Snapshots: st, DB: db}, nil

	case config.DriverMemory:
		mem := repository.NewMemoryStore()
		if cfg.SeedPlayers > 0 && cfg.SeedEvents > 0 {
			to := time.Now().UTC()
			ds, err := seed.New(cfg.Seed).Generate(cfg.SeedPlayers, cfg.SeedEvents, to.Add(-seedSpan), to)
			if err != nil {
				return nil, fmt.Errorf("generate demo data: %w", err)
			}
			if err := seed.Load(ctx, mem, ds); err != nil {
				return nil, err
			}
			l.Info(ctx, "memory store seeded",
				logger.Int("players", len(ds.Players)),
				logger.Int("events", len(ds.Events)),
				logger.Int("results", len(ds.Results)),
			)
		}
		return &Stores{Facts: mem, Writer: mem, Snapshots: mem}, nil

	default:
		return nil, fmt.Errorf("%w: unknown store_driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

// NewFromConfig builds a Service over stores using cfg's catalog and
// pipeline settings.
func NewFromConfig(cfg *config.Config, stores *Stores, l logger.Logger) (*Service, error) {
	catalog, err := config.NewCatalog(cfg.Scopes)
	if err != nil {
		return nil, err
	}
	return New(
		WithLogger(l),
		WithFactStore(stores.Facts),
		WithSnapshotStore(stores.Snapshots),
		WithCatalog(catalog),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithJobTimeout(cfg.JobTimeout),
	), nil
}
