package postgres

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/tourboard/internal/adapters/repository"
	"github.com/okian/tourboard/pkg/logger"
	"github.com/okian/tourboard/pkg/metrics"
)

// Store implements repository.FactStore, repository.FactWriter and
// repository.SnapshotStore on a bun database handle.
type Store struct {
	db     bun.IDB
	logger logger.Logger
	now    func() time.Time
}

var (
	_ repository.FactStore     = (*Store)(nil)
	_ repository.FactWriter    = (*Store)(nil)
	_ repository.SnapshotStore = (*Store)(nil)
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a store on db.
func New(db bun.IDB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// recordCount refreshes the per-table record gauge. Failures only affect
// the metric.
func (s *Store) recordCount(ctx context.Context, table string, model interface{}) {
	n, err := s.db.NewSelect().Model(model).Count(ctx)
	if err != nil {
		s.logger.Debug(ctx, "count records failed", logger.String("table", table), logger.Error(err))
		return
	}
	metrics.UpdateRepositoryRecords(table, n)
}
