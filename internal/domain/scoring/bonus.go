package scoring

import (
	"github.com/okian/tourboard/internal/domain/model"
)

// BackToBackWins awards rule.Points for every pair of wins with no other
// result between them in the player's chronological sequence. Three
// straight wins form two pairs.
func BackToBackWins(p model.ScoredPlayer, rule model.BonusRule) float64 {
	pairs := 0
	for i := 1; i < len(p.Appearances); i++ {
		if p.Appearances[i-1].Won && p.Appearances[i].Won {
			pairs++
		}
	}
	return float64(pairs) * rule.Points
}

// ParticipationAfterCap awards rule.Points for each result beyond the
// counted ones. Under cumulative scoring every result counts, so it
// yields 0.
func ParticipationAfterCap(p model.ScoredPlayer, rule model.BonusRule) float64 {
	extra := p.TotalCount - p.UsedCount
	if extra <= 0 {
		return 0
	}
	return float64(extra) * rule.Points
}
