package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ScoringMethod selects how a player's point sequence becomes base points.
type ScoringMethod string

// Supported scoring methods.
const (
	ScoringCumulative ScoringMethod = "CUMULATIVE"
	ScoringBestX      ScoringMethod = "BEST_X"
)

// ParseScoringMethod accepts the canonical names case-insensitively.
// An empty string defaults to cumulative scoring.
func ParseScoringMethod(s string) (ScoringMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(ScoringCumulative):
		return ScoringCumulative, nil
	case string(ScoringBestX), "BESTX", "BEST-X":
		return ScoringBestX, nil
	default:
		return "", fmt.Errorf("%w: unknown scoring method %q", ErrInvalidScope, s)
	}
}

// HighRollerFilter restricts facts by their event's high-roller flag.
type HighRollerFilter int

// High roller filter values.
const (
	HighRollerAny HighRollerFilter = iota
	HighRollerOnly
)

// BonusKind tags a bonus rule variant.
type BonusKind string

// Bonus kinds understood by the default scorer. Other kinds are ignored.
const (
	BonusBackToBackWins        BonusKind = "back_to_back_wins"
	BonusParticipationAfterCap BonusKind = "participation_after_cap"
)

// BonusRule configures one bonus. Points is the value awarded per
// qualifying occurrence.
type BonusRule struct {
	Kind   BonusKind
	Points float64
}

// ScopeDescriptor describes which slice of results to rank and how to
// score them. It is treated as an immutable value.
type ScopeDescriptor struct {
	// Key identifies the scope for snapshot history, e.g. a league slug.
	Key string

	DateFrom time.Time // inclusive
	DateTo   time.Time // inclusive

	HighRoller HighRollerFilter
	// MaxBuyIn, when set, keeps only events with buy_in strictly below it.
	MaxBuyIn *decimal.Decimal
	// SeriesOrFestivalIDs, when non-nil, keeps only events whose series or
	// festival id is in the set.
	SeriesOrFestivalIDs map[string]struct{}

	Method     ScoringMethod
	Cap        int
	BonusRules []BonusRule
}

// Validate rejects descriptors that cannot be computed.
func (s ScopeDescriptor) Validate() error {
	if s.DateFrom.IsZero() {
		return fmt.Errorf("%w: missing date_from", ErrInvalidScope)
	}
	if s.DateTo.IsZero() {
		return fmt.Errorf("%w: missing date_to", ErrInvalidScope)
	}
	if Day(s.DateFrom).After(Day(s.DateTo)) {
		return fmt.Errorf("%w: date_from %s is after date_to %s",
			ErrInvalidScope, FormatDay(s.DateFrom), FormatDay(s.DateTo))
	}
	switch s.Method {
	case ScoringCumulative, ScoringBestX, "":
	default:
		return fmt.Errorf("%w: unknown scoring method %q", ErrInvalidScope, s.Method)
	}
	return nil
}

// EffectiveMethod resolves the scoring method actually applied. A BEST_X
// scope without a positive cap degrades to cumulative scoring.
func (s ScopeDescriptor) EffectiveMethod() ScoringMethod {
	if s.Method == ScoringBestX && s.Cap > 0 {
		return ScoringBestX
	}
	return ScoringCumulative
}

// IDSet builds a membership set for SeriesOrFestivalIDs. Blank ids are
// dropped. It returns nil for an empty input so the filter stays inactive.
func IDSet(ids ...string) map[string]struct{} {
	var set map[string]struct{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(ids))
		}
		set[id] = struct{}{}
	}
	return set
}
