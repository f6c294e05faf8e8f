// Package scoring turns player aggregates into scored players under a
// scope's scoring method and bonus rules.
package scoring

import (
	"github.com/okian/tourboard/internal/domain/model"
)

// BonusEvaluator computes what a single rule awards to one player. The
// player passed in already carries base points and used/total counts.
type BonusEvaluator func(p model.ScoredPlayer, rule model.BonusRule) float64

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithBonusEvaluator registers or replaces the evaluator for kind.
func WithBonusEvaluator(kind model.BonusKind, eval BonusEvaluator) Option {
	return func(s *Scorer) {
		if kind != "" && eval != nil {
			s.evaluators[kind] = eval
		}
	}
}

// Scorer applies cumulative or best-X scoring plus bonus rules.
// It holds no mutable state after construction and is safe for
// concurrent use.
type Scorer struct {
	evaluators map[model.BonusKind]BonusEvaluator
}

// New creates a scorer with the built-in bonus evaluators registered.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		evaluators: map[model.BonusKind]BonusEvaluator{
			model.BonusBackToBackWins:        BackToBackWins,
			model.BonusParticipationAfterCap: ParticipationAfterCap,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes base, bonus and final points for one aggregate.
func (s *Scorer) Score(agg model.PlayerAggregate, scope model.ScopeDescriptor) model.ScoredPlayer {
	p := model.ScoredPlayer{
		PlayerAggregate: agg,
		TotalCount:      len(agg.Points),
	}

	switch scope.EffectiveMethod() {
	case model.ScoringBestX:
		p.UsedCount = min(scope.Cap, p.TotalCount)
	default:
		p.UsedCount = p.TotalCount
	}

	// Points arrive sorted descending, so the counted values are a prefix.
	for _, v := range agg.Points[:p.UsedCount] {
		p.BasePoints += v
	}
	p.LowestCountedPoints = lowestCounted(agg.Points, p.UsedCount)

	for _, rule := range scope.BonusRules {
		eval, ok := s.evaluators[rule.Kind]
		if !ok {
			continue
		}
		p.BonusPoints += eval(p, rule)
	}

	p.FinalPoints = p.BasePoints + p.BonusPoints
	return p
}

// ScoreAll scores every aggregate, preserving order.
func (s *Scorer) ScoreAll(aggs []model.PlayerAggregate, scope model.ScopeDescriptor) []model.ScoredPlayer {
	out := make([]model.ScoredPlayer, len(aggs))
	for i, agg := range aggs {
		out[i] = s.Score(agg, scope)
	}
	return out
}

func lowestCounted(points []float64, used int) float64 {
	if used == 0 {
		return 0
	}
	return points[used-1]
}
