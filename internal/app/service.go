// Package service provides the leaderboard service: the single entry point
// that turns stored facts into ranked standings and snapshot history.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tourboard/internal/adapters/mq/queue"
	"github.com/okian/tourboard/internal/adapters/mq/worker"
	"github.com/okian/tourboard/internal/adapters/repository"
	"github.com/okian/tourboard/internal/config"
	"github.com/okian/tourboard/internal/domain/aggregate"
	"github.com/okian/tourboard/internal/domain/consent"
	"github.com/okian/tourboard/internal/domain/dedupe"
	"github.com/okian/tourboard/internal/domain/model"
	"github.com/okian/tourboard/internal/domain/movement"
	"github.com/okian/tourboard/internal/domain/ranking"
	"github.com/okian/tourboard/internal/domain/scope"
	"github.com/okian/tourboard/internal/domain/scoring"
	"github.com/okian/tourboard/internal/domain/types"
	"github.com/okian/tourboard/pkg/logger"
	"github.com/okian/tourboard/pkg/metrics"
)

const (
	defaultQueueSize  = 1024
	defaultDedupeSize = 10_000
	defaultJobTimeout = 2 * time.Minute
)

// Service orchestrates scope filtering, aggregation, scoring, ranking and
// movement for a scope, and runs the asynchronous snapshot pipeline.
type Service struct {
	mu sync.RWMutex

	// Ports
	facts     repository.FactStore
	snapshots repository.SnapshotStore
	catalog   *config.Catalog
	scorer    *scoring.Scorer

	// Snapshot pipeline, built by Start
	deduper dedupe.Deduper
	jobs    *queue.InMemoryQueue
	pool    *worker.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	jobTimeout  time.Duration
	now         func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFactStore sets the store results and identities are read from.
func WithFactStore(fs repository.FactStore) Option {
	return func(s *Service) {
		if fs != nil {
			s.facts = fs
		}
	}
}

// WithSnapshotStore sets the store snapshots are read from and written to.
func WithSnapshotStore(ss repository.SnapshotStore) Option {
	return func(s *Service) {
		if ss != nil {
			s.snapshots = ss
		}
	}
}

// WithCatalog sets the named scope catalog.
func WithCatalog(c *config.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithScorer replaces the default scorer, e.g. to register extra bonus kinds.
func WithScorer(sc *scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithClock sets the time source used for job timestamps and metrics.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWorkerCount sets the number of snapshot workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the snapshot job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the maximum number of in-flight job claims.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithJobTimeout bounds a single snapshot job.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Without explicit stores it uses one shared
// in-memory store for facts and snapshots; without a catalog it uses the
// default scopes.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:      scoring.New(),
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		jobTimeout:  defaultJobTimeout,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.facts == nil || s.snapshots == nil {
		mem := repository.NewMemoryStore()
		if s.facts == nil {
			s.facts = mem
		}
		if s.snapshots == nil {
			s.snapshots = mem
		}
	}
	if s.catalog == nil {
		// The default scopes are static and always valid.
		s.catalog, _ = config.NewCatalog(config.DefaultScopes())
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("leaderboard")

	return s
}

// Start builds the snapshot pipeline and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting leaderboard service...")

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithTTL(s.jobTimeout*2),
	)
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	deduper := s.deduper
	s.pool = worker.NewPool(s.workerCount, s.jobs, s,
		worker.WithPoolLogger(s.logger),
		worker.WithPoolJobTimeout(s.jobTimeout),
		worker.WithPoolOnDone(func(ctx context.Context, j queue.Job, _ error) {
			// Release the claim so the same day can be re-snapshotted later.
			deduper.Unrecord(ctx, dedupe.JobKey(j.ScopeKey, j.AsOf))
		}),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("scopes", len(s.catalog.Scopes())),
	)

	return nil
}

// Stop closes the job queue and waits for queued snapshots to finish.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping leaderboard service...")

	var err error
	if s.pool != nil {
		err = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
	return err
}

// ComputeStandings ranks every player who has a qualifying result in desc
// up to and including asOf. With withMovement set, rows are annotated
// against the latest snapshot of desc.Key dated before asOf.
func (s *Service) ComputeStandings(ctx context.Context, desc model.ScopeDescriptor, asOf time.Time, withMovement bool) ([]model.RankedRow, error) {
	if asOf.IsZero() {
		return nil, fmt.Errorf("%w: missing as_of", model.ErrInvalidScope)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()
	asOf = model.Day(asOf)
	from := model.Day(desc.DateFrom)
	to := model.MinDay(desc.DateTo, asOf)
	if to.Before(from) {
		return []model.RankedRow{}, nil
	}
	window := desc
	window.DateFrom, window.DateTo = from, to

	s.logger.Debug(ctx, "computing standings",
		logger.String("scope_key", desc.Key),
		logger.String("as_of", model.FormatDay(asOf)),
		logger.String("run_id", runID),
	)

	facts, err := s.facts.FetchResultFacts(ctx, repository.FactQuery{
		DateFrom:       from,
		DateTo:         to,
		HighRollerOnly: desc.HighRoller == model.HighRollerOnly,
	})
	if err != nil {
		return nil, s.adapterError(ctx, "fetch result facts", err)
	}

	inScope := scope.Filter(facts, window)
	aggs := aggregate.ByPlayer(inScope)
	rows := ranking.Rank(s.scorer.ScoreAll(aggs, window))

	if len(rows) > 0 {
		ids := make([]string, len(rows))
		for i, r := range rows {
			ids[i] = r.PlayerID
		}
		identities, err := s.facts.FetchPlayerIdentity(ctx, ids)
		if err != nil {
			return nil, s.adapterError(ctx, "fetch player identity", err)
		}
		for i := range rows {
			id, ok := identities[rows[i].PlayerID]
			if !ok {
				id = model.PlayerIdentity{PlayerID: rows[i].PlayerID}
			}
			rows[i].DisplayName = consent.DisplayName(consent.Consented(rows[i].PlayerAggregate, id), id)
		}
	}

	if withMovement && desc.Key != "" && len(rows) > 0 {
		prior, err := s.snapshots.FetchLatestSnapshot(ctx, desc.Key, asOf)
		if err != nil {
			return nil, s.adapterError(ctx, "fetch latest snapshot", err)
		}
		rows = movement.Apply(rows, prior)
	}

	metrics.RecordStandingsComputed(desc.Key, float64(time.Since(start).Milliseconds()), len(rows), len(inScope))
	s.logger.Debug(ctx, "standings computed",
		logger.String("scope_key", desc.Key),
		logger.Int("facts", len(inScope)),
		logger.Int("players", len(rows)),
		logger.String("run_id", runID),
	)

	return rows, nil
}

// PersistSnapshot replaces the snapshot of scopeKey on asOf with rows. An
// empty row list is refused without touching stored history.
func (s *Service) PersistSnapshot(ctx context.Context, scopeKey string, asOf time.Time, rows []model.RankedRow) error {
	if scopeKey == "" {
		return fmt.Errorf("%w: missing scope key", model.ErrInvalidScope)
	}
	if asOf.IsZero() {
		return fmt.Errorf("%w: missing as_of", model.ErrInvalidScope)
	}

	day := model.Day(asOf)
	entries := movement.Entries(scopeKey, day, rows)
	if len(entries) == 0 {
		s.logger.Warn(ctx, "refusing to persist empty snapshot",
			logger.String("scope_key", scopeKey),
			logger.String("as_of", model.FormatDay(day)),
		)
		metrics.RecordSnapshotSkipped(scopeKey, "empty")
		return nil
	}

	if err := s.snapshots.UpsertSnapshot(ctx, scopeKey, day, entries); err != nil {
		return s.adapterError(ctx, "upsert snapshot", err)
	}

	metrics.RecordSnapshotPersisted(scopeKey, len(entries), float64(s.now().Unix()))
	s.logger.Info(ctx, "snapshot persisted",
		logger.String("scope_key", scopeKey),
		logger.String("as_of", model.FormatDay(day)),
		logger.Int("rows", len(entries)),
	)
	return nil
}

// SnapshotScope computes the named scope on asOf and persists it. It
// returns the number of ranked rows.
func (s *Service) SnapshotScope(ctx context.Context, scopeKey string, asOf time.Time) (int, error) {
	rows, err := s.Standings(ctx, scopeKey, asOf, false)
	if err != nil {
		return 0, err
	}
	if err := s.PersistSnapshot(ctx, scopeKey, asOf, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Standings computes the named scope from the catalog.
func (s *Service) Standings(ctx context.Context, scopeKey string, asOf time.Time, withMovement bool) ([]model.RankedRow, error) {
	if asOf.IsZero() {
		return nil, fmt.Errorf("%w: missing as_of", model.ErrInvalidScope)
	}
	desc, err := s.catalog.Descriptor(scopeKey, asOf)
	if err != nil {
		return nil, err
	}
	return s.ComputeStandings(ctx, desc, asOf, withMovement)
}

// PlayerStanding returns one player's row in the named scope.
func (s *Service) PlayerStanding(ctx context.Context, scopeKey, playerID string, asOf time.Time, withMovement bool) (model.RankedRow, error) {
	rows, err := s.Standings(ctx, scopeKey, asOf, withMovement)
	if err != nil {
		return model.RankedRow{}, err
	}
	for _, r := range rows {
		if r.PlayerID == playerID {
			return r, nil
		}
	}
	return model.RankedRow{}, fmt.Errorf("%w: %q in %q", ErrNotRanked, playerID, scopeKey)
}

// Scopes lists the catalog.
func (s *Service) Scopes() []types.ScopeSummary {
	cfgs := s.catalog.Scopes()
	out := make([]types.ScopeSummary, len(cfgs))
	for i, c := range cfgs {
		out[i] = types.ScopeSummary{Key: c.Key, Name: c.Name}
	}
	return out
}

// EnqueueSnapshot schedules a snapshot of scopeKey on asOf. It reports
// duplicate when the same (scope, day) job is already in flight.
func (s *Service) EnqueueSnapshot(ctx context.Context, scopeKey string, asOf time.Time) (duplicate bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false, ErrNotStarted
	}
	if _, ok := s.catalog.Get(scopeKey); !ok {
		return false, fmt.Errorf("%w: %q", model.ErrUnknownScope, scopeKey)
	}
	if asOf.IsZero() {
		return false, fmt.Errorf("%w: missing as_of", model.ErrInvalidScope)
	}

	asOf = model.Day(asOf)
	key := dedupe.JobKey(scopeKey, asOf)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordSnapshotDuplicate()
		s.logger.Debug(ctx, "duplicate snapshot job, skipping", logger.String("job", key))
		return true, nil
	}

	err = s.jobs.Enqueue(ctx, queue.Job{ScopeKey: scopeKey, AsOf: asOf, RequestedAt: s.now()})
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		if errors.Is(err, queue.ErrFull) {
			return false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return false, fmt.Errorf("enqueue snapshot: %w", err)
	}
	return false, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"scopes":      len(s.catalog.Scopes()),
	}

	if s.started {
		stats["queueLength"] = s.jobs.Len()
		stats["inFlight"] = s.deduper.Size()
		stats["processed"] = s.pool.Processed()
		stats["failed"] = s.pool.Failed()

		metrics.UpdateQueueSize(s.jobs.Len())
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}

func (s *Service) adapterError(ctx context.Context, op string, err error) error {
	metrics.RecordErrorByComponent("leaderboard", op)
	s.logger.Error(ctx, "store call failed", logger.String("op", op), logger.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrAdapterFailure, op, err)
}
