// Package worker runs queued snapshot jobs against the leaderboard service.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/tourboard/internal/adapters/mq/queue"
	"github.com/okian/tourboard/internal/domain/model"
	"github.com/okian/tourboard/pkg/logger"
	"github.com/okian/tourboard/pkg/metrics"
)

const (
	defaultJobTimeout   = 2 * time.Minute
	poolShutdownTimeout = 30 * time.Second
)

// Snapshotter computes and persists the standings of one named scope.
// It returns the number of rows written.
type Snapshotter interface {
	SnapshotScope(ctx context.Context, scopeKey string, asOf time.Time) (int, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// DoneFunc is called once a job finished, successfully or not.
type DoneFunc func(ctx context.Context, j queue.Job, err error)

// Worker processes snapshot jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in progress.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue       Queue
	snapshotter Snapshotter
	name        string
	jobTimeout  time.Duration
	onDone      DoneFunc

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, s Snapshotter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		snapshotter: s,
		name:        "worker",
		jobTimeout:  defaultJobTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			_ = w.process(ctx, j)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		if w.onDone != nil {
			w.onDone(ctx, j, err)
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	rows, err := w.snapshotter.SnapshotScope(jobCtx, j.ScopeKey, j.AsOf)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "snapshot_failed")
		w.logger.Error(ctx, "snapshot job failed",
			logger.String("scope_key", j.ScopeKey),
			logger.String("as_of", model.FormatDay(j.AsOf)),
			logger.Error(err),
		)
		return fmt.Errorf("snapshot %s as of %s: %w", j.ScopeKey, model.FormatDay(j.AsOf), err)
	}

	w.logger.Debug(ctx, "snapshot job finished",
		logger.String("scope_key", j.ScopeKey),
		logger.String("as_of", model.FormatDay(j.AsOf)),
		logger.Int("rows", rows),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates a worker pool. A workerCount below 1 uses one worker per
// CPU.
func NewPool(workerCount int, q Queue, s Snapshotter, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	cfg := poolConfig{logger: logger.Nop(), jobTimeout: defaultJobTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  cfg.logger.Named("worker-pool"),
	}

	onDone := func(ctx context.Context, j queue.Job, err error) {
		if err != nil {
			p.failed.Add(1)
		} else {
			p.processed.Add(1)
		}
		if cfg.onDone != nil {
			cfg.onDone(ctx, j, err)
		}
	}

	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(q, s,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(cfg.logger),
			WithJobTimeout(cfg.jobTimeout),
			WithOnDone(onDone),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the number of jobs that succeeded.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Failed returns the number of jobs that failed.
func (p *Pool) Failed() int64 {
	return p.failed.Load()
}

// Shutdown closes the queue when it supports closing, lets workers drain it
// and waits for them until ctx or the pool timeout expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)

	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
