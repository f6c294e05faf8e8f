package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/tourboard/internal/adapters/repository"
	"github.com/okian/tourboard/internal/domain/model"
)

// FetchResultFacts implements repository.FactStore. Only the date window and
// the high-roller flag are pushed down.
func (s *Store) FetchResultFacts(ctx context.Context, q repository.FactQuery) ([]model.ResultFact, error) {
	start := time.Now()
	defer observe("fetch_result_facts", start)

	var rows []factRow
	sel := s.db.NewSelect().
		TableExpr("results AS r").
		Join("JOIN events AS e ON e.id = r.event_id").
		ColumnExpr("r.player_id, r.event_id, r.points, r.position_of_prize, r.prize_amount, r.consent").
		ColumnExpr("e.event_date, e.sequence AS event_sequence, e.is_high_roller, e.buy_in, e.series_id, e.festival_id")
	if !q.DateFrom.IsZero() {
		sel = sel.Where("e.event_date >= ?::date", model.FormatDay(q.DateFrom))
	}
	if !q.DateTo.IsZero() {
		sel = sel.Where("e.event_date <= ?::date", model.FormatDay(q.DateTo))
	}
	if q.HighRollerOnly {
		sel = sel.Where("e.is_high_roller")
	}
	err := sel.
		OrderExpr("e.event_date ASC, e.sequence ASC, r.event_id ASC, r.player_id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, mapError("fetch result facts", err)
	}

	facts := make([]model.ResultFact, 0, len(rows))
	for _, r := range rows {
		facts = append(facts, model.ResultFact{
			PlayerID:        r.PlayerID,
			EventID:         r.EventID,
			Points:          r.Points,
			PositionOfPrize: r.PositionOfPrize,
			PrizeAmount:     decimalPtr(r.PrizeAmount),
			Consent:         r.Consent,
			EventDate:       model.Day(r.EventDate),
			EventSequence:   r.EventSequence,
			IsHighRoller:    r.IsHighRoller,
			BuyIn:           decimalPtr(r.BuyIn),
			SeriesID:        r.SeriesID,
			FestivalID:      r.FestivalID,
		})
	}
	return facts, nil
}

// FetchPlayerIdentity implements repository.FactStore. EverConsented is the
// OR of the consent flag over all of the player's results.
func (s *Store) FetchPlayerIdentity(ctx context.Context, playerIDs []string) (map[string]model.PlayerIdentity, error) {
	start := time.Now()
	defer observe("fetch_player_identity", start)

	out := make(map[string]model.PlayerIdentity, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}

	var rows []identityRow
	err := s.db.NewSelect().
		TableExpr("players AS p").
		ColumnExpr("p.id AS player_id, p.forename, p.surname, p.display_name").
		ColumnExpr("COALESCE(bool_or(r.consent), false) AS ever_consented").
		Join("LEFT JOIN results AS r ON r.player_id = p.id").
		Where("p.id IN (?)", bun.In(playerIDs)).
		GroupExpr("p.id, p.forename, p.surname, p.display_name").
		Scan(ctx, &rows)
	if err != nil {
		return nil, mapError("fetch player identity", err)
	}

	for _, r := range rows {
		out[r.PlayerID] = model.PlayerIdentity{
			PlayerID:      r.PlayerID,
			Forename:      r.Forename,
			Surname:       r.Surname,
			DisplayName:   r.DisplayName,
			EverConsented: r.EverConsented,
		}
	}
	return out, nil
}

// SavePlayers implements repository.FactWriter.
func (s *Store) SavePlayers(ctx context.Context, players []repository.Player) error {
	if len(players) == 0 {
		return nil
	}
	rows := make([]playerRow, 0, len(players))
	for _, p := range players {
		if p.ID == "" {
			return fmt.Errorf("save players: empty player id: %w", repository.ErrInvalidInput)
		}
		rows = append(rows, playerRow{ID: p.ID, Forename: p.Forename, Surname: p.Surname, DisplayName: p.DisplayName})
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("forename = EXCLUDED.forename").
		Set("surname = EXCLUDED.surname").
		Set("display_name = EXCLUDED.display_name").
		Exec(ctx)
	if err != nil {
		return mapError("save players", err)
	}
	s.recordCount(ctx, "players", (*playerRow)(nil))
	return nil
}

// SaveEvents implements repository.FactWriter.
func (s *Store) SaveEvents(ctx context.Context, events []repository.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]eventRow, 0, len(events))
	for _, e := range events {
		if e.ID == "" || e.Date.IsZero() {
			return fmt.Errorf("save events: event %q needs an id and a date: %w", e.ID, repository.ErrInvalidInput)
		}
		rows = append(rows, eventRow{
			ID:           e.ID,
			Name:         e.Name,
			EventDate:    model.Day(e.Date),
			Sequence:     e.Sequence,
			IsHighRoller: e.IsHighRoller,
			BuyIn:        nullDecimal(e.BuyIn),
			SeriesID:     e.SeriesID,
			FestivalID:   e.FestivalID,
		})
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("event_date = EXCLUDED.event_date").
		Set("sequence = EXCLUDED.sequence").
		Set("is_high_roller = EXCLUDED.is_high_roller").
		Set("buy_in = EXCLUDED.buy_in").
		Set("series_id = EXCLUDED.series_id").
		Set("festival_id = EXCLUDED.festival_id").
		Exec(ctx)
	if err != nil {
		return mapError("save events", err)
	}
	s.recordCount(ctx, "events", (*eventRow)(nil))
	return nil
}

// SaveResults implements repository.FactWriter. A result referencing an
// unknown player or event fails with repository.ErrNotFound.
func (s *Store) SaveResults(ctx context.Context, results []repository.Result) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([]resultRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, resultRow{
			PlayerID:        r.PlayerID,
			EventID:         r.EventID,
			Points:          r.Points,
			PositionOfPrize: r.PositionOfPrize,
			PrizeAmount:     nullDecimal(r.PrizeAmount),
			Consent:         r.Consent,
		})
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (player_id, event_id) DO UPDATE").
		Set("points = EXCLUDED.points").
		Set("position_of_prize = EXCLUDED.position_of_prize").
		Set("prize_amount = EXCLUDED.prize_amount").
		Set("consent = EXCLUDED.consent").
		Exec(ctx)
	if err != nil {
		return mapError("save results", err)
	}
	s.recordCount(ctx, "results", (*resultRow)(nil))
	return nil
}
