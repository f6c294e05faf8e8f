package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type playerRow struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID          string `bun:"id,pk"`
	Forename    string `bun:"forename,notnull"`
	Surname     string `bun:"surname,notnull"`
	DisplayName string `bun:"display_name,notnull"`
}

type eventRow struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID           string              `bun:"id,pk"`
	Name         string              `bun:"name,notnull"`
	EventDate    time.Time           `bun:"event_date,type:date,notnull"`
	Sequence     int                 `bun:"sequence,notnull"`
	IsHighRoller bool                `bun:"is_high_roller,notnull"`
	BuyIn        decimal.NullDecimal `bun:"buy_in,type:numeric"`
	SeriesID     string              `bun:"series_id,notnull"`
	FestivalID   string              `bun:"festival_id,notnull"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	PlayerID        string              `bun:"player_id,pk"`
	EventID         string              `bun:"event_id,pk"`
	Points          *float64            `bun:"points"`
	PositionOfPrize *int                `bun:"position_of_prize"`
	PrizeAmount     decimal.NullDecimal `bun:"prize_amount,type:numeric"`
	Consent         bool                `bun:"consent,notnull"`
}

// factRow is the projection of results joined with events.
type factRow struct {
	PlayerID        string              `bun:"player_id"`
	EventID         string              `bun:"event_id"`
	Points          *float64            `bun:"points"`
	PositionOfPrize *int                `bun:"position_of_prize"`
	PrizeAmount     decimal.NullDecimal `bun:"prize_amount"`
	Consent         bool                `bun:"consent"`
	EventDate       time.Time           `bun:"event_date"`
	EventSequence   int                 `bun:"event_sequence"`
	IsHighRoller    bool                `bun:"is_high_roller"`
	BuyIn           decimal.NullDecimal `bun:"buy_in"`
	SeriesID        string              `bun:"series_id"`
	FestivalID      string              `bun:"festival_id"`
}

type identityRow struct {
	PlayerID      string `bun:"player_id"`
	Forename      string `bun:"forename"`
	Surname       string `bun:"surname"`
	DisplayName   string `bun:"display_name"`
	EverConsented bool   `bun:"ever_consented"`
}

type snapshotRow struct {
	bun.BaseModel `bun:"table:leaderboard_snapshots,alias:s"`

	ScopeKey     string    `bun:"scope_key,pk"`
	SnapshotDate time.Time `bun:"snapshot_date,pk,type:date"`
	PlayerID     string    `bun:"player_id,pk"`
	Position     int       `bun:"position,notnull"`
	Points       float64   `bun:"points,notnull"`
	RunID        uuid.UUID `bun:"run_id,type:uuid,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
