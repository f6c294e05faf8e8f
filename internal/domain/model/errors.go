package model

import "errors"

// Sentinel error kinds for the leaderboard engine.
var (
	ErrInvalidScope = errors.New("invalid scope")
	ErrUnknownScope = errors.New("unknown scope")
)
