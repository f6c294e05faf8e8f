// Package ranking orders scored players into dense-ranked standings.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/tourboard/internal/domain/model"
)

// Compare orders two scored players by the tie-break chain, best first:
// final points, best single result, average of counted results, then
// number of results. It returns 0 only when the whole tuple is equal.
func Compare(a, b model.ScoredPlayer) int {
	if c := cmp.Compare(b.FinalPoints, a.FinalPoints); c != 0 {
		return c
	}
	if c := cmp.Compare(b.BestSingle(), a.BestSingle()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.AverageUsed(), a.AverageUsed()); c != 0 {
		return c
	}
	return cmp.Compare(b.TotalCount, a.TotalCount)
}

// Rank sorts players and assigns dense positions starting at 1. Players
// with an identical tie-break tuple share a position and the next tuple
// gets position+1. Ties are ordered by player id so output is stable for
// pagination and snapshot diffs. The input slice is not modified.
func Rank(players []model.ScoredPlayer) []model.RankedRow {
	sorted := slices.Clone(players)
	slices.SortFunc(sorted, func(a, b model.ScoredPlayer) int {
		if c := Compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})

	rows := make([]model.RankedRow, len(sorted))
	position := 0
	for i, p := range sorted {
		if i == 0 || Compare(sorted[i-1], p) != 0 {
			position++
		}
		rows[i] = model.RankedRow{ScoredPlayer: p, Position: position}
	}
	return rows
}
