// Package movement annotates standings with rank changes since the most
// recent prior snapshot.
package movement

import (
	"time"

	"github.com/okian/tourboard/internal/domain/model"
)

// Apply sets Movement on each row to prior_position - current_position
// when the player appears in prior, and 0 otherwise. Players present only
// in prior are not reported. A new slice is returned; rows is untouched.
func Apply(rows []model.RankedRow, prior []model.SnapshotEntry) []model.RankedRow {
	previous := make(map[string]int, len(prior))
	for _, e := range prior {
		if e.PlayerID == "" {
			continue
		}
		previous[e.PlayerID] = e.Position
	}

	out := make([]model.RankedRow, len(rows))
	for i, r := range rows {
		r.Movement = 0
		if before, ok := previous[r.PlayerID]; ok && before > 0 {
			r.Movement = before - r.Position
		}
		out[i] = r
	}
	return out
}

// Entries converts ranked rows into snapshot entries for scopeKey on day.
// Rows without a player id are dropped; snapshot history only tracks
// identifiable players.
func Entries(scopeKey string, day time.Time, rows []model.RankedRow) []model.SnapshotEntry {
	out := make([]model.SnapshotEntry, 0, len(rows))
	for _, r := range rows {
		if r.PlayerID == "" {
			continue
		}
		out = append(out, model.SnapshotEntry{
			SnapshotDate: model.Day(day),
			ScopeKey:     scopeKey,
			PlayerID:     r.PlayerID,
			Position:     r.Position,
			Points:       r.FinalPoints,
		})
	}
	return out
}
