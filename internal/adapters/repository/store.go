// Package repository defines the fact and snapshot store ports used by the
// leaderboard service, plus an in-memory implementation of both.
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/tourboard/internal/domain/model"
)

// Player is a stored player identity.
type Player struct {
	ID          string
	Forename    string
	Surname     string
	DisplayName string
}

// Event is a stored tournament event.
type Event struct {
	ID           string
	Name         string
	Date         time.Time
	Sequence     int
	IsHighRoller bool
	BuyIn        *decimal.Decimal
	SeriesID     string
	FestivalID   string
}

// Result is one player's stored finish in one event.
type Result struct {
	PlayerID        string
	EventID         string
	Points          *float64
	PositionOfPrize *int
	PrizeAmount     *decimal.Decimal
	Consent         bool
}

// FactQuery carries the coarse predicates a store may push down. Callers
// must still apply the full scope filter to the returned facts.
type FactQuery struct {
	DateFrom       time.Time
	DateTo         time.Time
	HighRollerOnly bool
}

// FactStore reads result facts and player identities.
type FactStore interface {
	// FetchResultFacts returns the results of events dated within
	// [DateFrom, DateTo], joined with their event attributes.
	FetchResultFacts(ctx context.Context, q FactQuery) ([]model.ResultFact, error)

	// FetchPlayerIdentity returns identities keyed by player id. Unknown
	// ids are omitted.
	FetchPlayerIdentity(ctx context.Context, playerIDs []string) (map[string]model.PlayerIdentity, error)
}

// FactWriter stores raw facts. Writes are upserts keyed by id, and by
// (player, event) for results.
type FactWriter interface {
	SavePlayers(ctx context.Context, players []Player) error
	SaveEvents(ctx context.Context, events []Event) error
	SaveResults(ctx context.Context, results []Result) error
}

// SnapshotStore persists daily ranking snapshots.
type SnapshotStore interface {
	// FetchLatestSnapshot returns the entries of the newest snapshot for
	// scopeKey dated strictly before beforeDate. It returns an empty slice
	// when no such snapshot exists.
	FetchLatestSnapshot(ctx context.Context, scopeKey string, beforeDate time.Time) ([]model.SnapshotEntry, error)

	// UpsertSnapshot replaces every entry for (scopeKey, date) with entries
	// atomically.
	UpsertSnapshot(ctx context.Context, scopeKey string, date time.Time, entries []model.SnapshotEntry) error
}
