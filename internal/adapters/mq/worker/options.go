package worker

import (
	"time"

	"github.com/okian/tourboard/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithJobTimeout bounds a single snapshot job.
func WithJobTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.jobTimeout = d
		}
	}
}

// WithOnDone registers a callback run after every job.
func WithOnDone(fn DoneFunc) Option {
	return func(w *InMemoryWorker) {
		w.onDone = fn
	}
}

type poolConfig struct {
	logger     logger.Logger
	jobTimeout time.Duration
	onDone     DoneFunc
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*poolConfig)

// WithPoolLogger sets the logger shared by the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(c *poolConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPoolJobTimeout bounds every job run by the pool.
func WithPoolJobTimeout(d time.Duration) PoolOption {
	return func(c *poolConfig) {
		if d > 0 {
			c.jobTimeout = d
		}
	}
}

// WithPoolOnDone registers a callback run after every job.
func WithPoolOnDone(fn DoneFunc) PoolOption {
	return func(c *poolConfig) {
		c.onDone = fn
	}
}
