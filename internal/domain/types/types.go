// Package types contains common types used across the application
package types

import (
	"github.com/okian/tourboard/internal/domain/model"
)

// StandingRow is the JSON shape of one standings line.
type StandingRow struct {
	Position            int     `json:"position"`
	PlayerID            string  `json:"player_id"`
	DisplayName         string  `json:"display_name"`
	Points              float64 `json:"points"`
	BasePoints          float64 `json:"base_points"`
	BonusPoints         float64 `json:"bonus_points"`
	UsedCount           int     `json:"used_count"`
	TotalCount          int     `json:"total_count"`
	LowestCountedPoints float64 `json:"lowest_counted_points"`
	EventsPlayed        int     `json:"events_played"`
	Wins                int     `json:"wins"`
	FinalTables         int     `json:"final_tables"`
	Podiums             int     `json:"podiums"`
	Winnings            string  `json:"winnings"`
	Movement            int     `json:"movement"`
}

// FromRankedRow converts an engine row into its JSON shape. Points are
// rounded for display; Winnings keeps full decimal precision.
func FromRankedRow(r model.RankedRow) StandingRow {
	return StandingRow{
		Position:            r.Position,
		PlayerID:            r.PlayerID,
		DisplayName:         r.DisplayName,
		Points:              r.DisplayPoints(),
		BasePoints:          r.BasePoints,
		BonusPoints:         r.BonusPoints,
		UsedCount:           r.UsedCount,
		TotalCount:          r.TotalCount,
		LowestCountedPoints: r.LowestCountedPoints,
		EventsPlayed:        r.EventsPlayed,
		Wins:                r.Wins,
		FinalTables:         r.FinalTables,
		Podiums:             r.Podiums,
		Winnings:            r.Winnings.String(),
		Movement:            r.Movement,
	}
}

// FromRankedRows converts a whole standings table.
func FromRankedRows(rows []model.RankedRow) []StandingRow {
	out := make([]StandingRow, len(rows))
	for i, r := range rows {
		out[i] = FromRankedRow(r)
	}
	return out
}

// ScopeSummary describes one entry of the scope catalog.
type ScopeSummary struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}
