// Package aggregate groups scoped result facts into per-player aggregates.
package aggregate

import (
	"cmp"
	"math"
	"slices"

	"github.com/okian/tourboard/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Finishing position cutoffs.
const (
	finalTableCutoff = 9
	podiumCutoff     = 3
)

// ByPlayer groups facts by player id. The result is ordered by player id
// so repeated runs over the same facts produce identical output. Players
// without facts are never emitted.
func ByPlayer(facts []model.ResultFact) []model.PlayerAggregate {
	index := make(map[string]int)
	var out []model.PlayerAggregate

	for _, f := range facts {
		i, ok := index[f.PlayerID]
		if !ok {
			i = len(out)
			index[f.PlayerID] = i
			out = append(out, model.PlayerAggregate{PlayerID: f.PlayerID, Winnings: decimal.Zero})
		}
		add(&out[i], f)
	}

	for i := range out {
		finish(&out[i])
	}
	slices.SortFunc(out, func(a, b model.PlayerAggregate) int {
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	return out
}

func add(a *model.PlayerAggregate, f model.ResultFact) {
	a.Points = append(a.Points, pointValue(f))
	a.EventsPlayed++
	if f.PositionOfPrize != nil {
		pos := *f.PositionOfPrize
		if pos == 1 {
			a.Wins++
		}
		if pos <= finalTableCutoff {
			a.FinalTables++
		}
		if pos <= podiumCutoff {
			a.Podiums++
		}
	}
	if f.PrizeAmount != nil {
		a.Winnings = a.Winnings.Add(*f.PrizeAmount)
	}
	if f.Consent {
		a.AnyConsent = true
	}
	a.Appearances = append(a.Appearances, model.Appearance{
		EventID:       f.EventID,
		EventDate:     model.Day(f.EventDate),
		EventSequence: f.EventSequence,
		Won:           f.IsWin(),
	})
}

func finish(a *model.PlayerAggregate) {
	slices.SortFunc(a.Points, func(x, y float64) int { return cmp.Compare(y, x) })
	slices.SortStableFunc(a.Appearances, CompareAppearances)
	for _, ap := range a.Appearances {
		if ap.Won {
			a.ChronologicalWins = append(a.ChronologicalWins, ap.EventDate)
		}
	}
}

// CompareAppearances orders appearances by event date, then intra-day
// sequence, then event id.
func CompareAppearances(x, y model.Appearance) int {
	if c := x.EventDate.Compare(y.EventDate); c != 0 {
		return c
	}
	if c := cmp.Compare(x.EventSequence, y.EventSequence); c != 0 {
		return c
	}
	return cmp.Compare(x.EventID, y.EventID)
}

// pointValue treats absent and non-finite points as 0.
func pointValue(f model.ResultFact) float64 {
	v := f.PointValue()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
