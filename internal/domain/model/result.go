// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResultFact is one player's outcome in one event. Facts are immutable once
// produced by a fact store; the engine never mutates them.
type ResultFact struct {
	PlayerID string
	EventID  string

	// Points is nil when the result carries no points; it counts as 0.
	Points *float64
	// PositionOfPrize is the rank inside the prize pool, 1 is a win.
	PositionOfPrize *int
	// PrizeAmount is carried through untouched, currency agnostic.
	PrizeAmount *decimal.Decimal
	// Consent is this particular result's GDPR consent flag.
	Consent bool

	// Event fields denormalized for scoping.
	EventDate     time.Time
	EventSequence int // intra-day ordinal, 0 if unknown
	IsHighRoller  bool
	BuyIn         *decimal.Decimal
	SeriesID      string
	FestivalID    string
}

// PointValue returns the result's points, treating absent values as 0.
func (f ResultFact) PointValue() float64 {
	if f.Points == nil {
		return 0
	}
	return *f.Points
}

// IsWin reports whether the result is a first place finish.
func (f ResultFact) IsWin() bool {
	return f.PositionOfPrize != nil && *f.PositionOfPrize == 1
}

// PlayerIdentity holds the naming fields of a player plus the consent flag
// resolved across every result the player has ever recorded.
type PlayerIdentity struct {
	PlayerID      string
	Forename      string
	Surname       string
	DisplayName   string
	EverConsented bool
}
