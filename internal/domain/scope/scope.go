// Package scope selects the result facts that belong to a leaderboard scope.
package scope

import (
	"github.com/okian/tourboard/internal/domain/model"
)

// Filter returns the facts that qualify for s, preserving input order.
// All predicates are ANDed. A fact missing a field that an active
// predicate needs is excluded, except for buy-in which is only consulted
// when MaxBuyIn is set. The input slice is never modified.
func Filter(facts []model.ResultFact, s model.ScopeDescriptor) []model.ResultFact {
	out := make([]model.ResultFact, 0, len(facts))
	for _, f := range facts {
		if Matches(f, s) {
			out = append(out, f)
		}
	}
	return out
}

// Matches reports whether a single fact qualifies for s.
func Matches(f model.ResultFact, s model.ScopeDescriptor) bool {
	return inDateRange(f, s) &&
		matchesHighRoller(f, s) &&
		underBuyInCap(f, s) &&
		inSeriesOrFestival(f, s)
}

func inDateRange(f model.ResultFact, s model.ScopeDescriptor) bool {
	if f.EventDate.IsZero() {
		return false
	}
	d := model.Day(f.EventDate)
	return !d.Before(model.Day(s.DateFrom)) && !d.After(model.Day(s.DateTo))
}

func matchesHighRoller(f model.ResultFact, s model.ScopeDescriptor) bool {
	if s.HighRoller == model.HighRollerOnly {
		return f.IsHighRoller
	}
	return true
}

// underBuyInCap is strict: an event at exactly the cap is excluded.
func underBuyInCap(f model.ResultFact, s model.ScopeDescriptor) bool {
	if s.MaxBuyIn == nil {
		return true
	}
	if f.BuyIn == nil {
		return false
	}
	return f.BuyIn.LessThan(*s.MaxBuyIn)
}

func inSeriesOrFestival(f model.ResultFact, s model.ScopeDescriptor) bool {
	if s.SeriesOrFestivalIDs == nil {
		return true
	}
	if f.SeriesID != "" {
		if _, ok := s.SeriesOrFestivalIDs[f.SeriesID]; ok {
			return true
		}
	}
	if f.FestivalID != "" {
		if _, ok := s.SeriesOrFestivalIDs[f.FestivalID]; ok {
			return true
		}
	}
	return false
}
