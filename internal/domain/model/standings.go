package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Appearance is one entry of a player's chronological result sequence.
type Appearance struct {
	EventID       string
	EventDate     time.Time
	EventSequence int
	Won           bool
}

// PlayerAggregate is built per scope, per player.
type PlayerAggregate struct {
	PlayerID string
	// Points holds every point value, sorted descending.
	Points       []float64
	EventsPlayed int
	Wins         int
	FinalTables  int // position_of_prize <= 9
	Podiums      int // position_of_prize <= 3
	Winnings     decimal.Decimal
	AnyConsent   bool
	// ChronologicalWins lists the date of every win, ascending.
	ChronologicalWins []time.Time
	// Appearances is the full chronological result sequence.
	Appearances []Appearance
}

// BestSingle returns the highest point value, or 0 when there are none.
func (a PlayerAggregate) BestSingle() float64 {
	if len(a.Points) == 0 {
		return 0
	}
	return a.Points[0]
}

// ScoredPlayer is an aggregate after the scoring method and bonus rules
// have been applied.
type ScoredPlayer struct {
	PlayerAggregate

	BasePoints          float64
	BonusPoints         float64
	FinalPoints         float64
	UsedCount           int
	TotalCount          int
	LowestCountedPoints float64
}

// AverageUsed returns base points per counted result, 0 when none counted.
func (s ScoredPlayer) AverageUsed() float64 {
	if s.UsedCount == 0 {
		return 0
	}
	return s.BasePoints / float64(s.UsedCount)
}

// DisplayPoints is FinalPoints rounded to two decimals. It is for
// presentation only; ranking always compares unrounded values.
func (s ScoredPlayer) DisplayPoints() float64 {
	return math.Round(s.FinalPoints*100) / 100
}

// RankedRow is one line of a standings table.
type RankedRow struct {
	ScoredPlayer

	Position    int
	DisplayName string
	// Movement is prior_position - current_position; positive is an
	// improvement, 0 when unchanged or unknown.
	Movement int
}

// SnapshotEntry is the persisted position of a player in a scope on a date.
type SnapshotEntry struct {
	SnapshotDate time.Time
	ScopeKey     string
	PlayerID     string
	Position     int
	Points       float64
}
