package service

import "errors"

// Sentinel errors returned by the service. Scope errors reuse
// model.ErrInvalidScope and model.ErrUnknownScope.
var (
	// ErrAdapterFailure wraps every fact or snapshot store error.
	ErrAdapterFailure = errors.New("adapter failure")

	// ErrBackpressure is returned when the snapshot queue is full.
	ErrBackpressure = errors.New("snapshot queue full")

	// ErrNotStarted is returned by operations that need the worker pool.
	ErrNotStarted = errors.New("service not started")

	// ErrNotRanked is returned when a player has no row in a scope.
	ErrNotRanked = errors.New("player not ranked")
)
