// Package seed generates deterministic fake tour data for demos and tests.
package seed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/okian/tourboard/internal/adapters/repository"
	"github.com/okian/tourboard/internal/domain/model"
)

const (
	minField       = 6
	maxField       = 40
	paidFraction   = 0.15
	highRollerRate = 0.15
	seriesCount    = 4
	festivalCount  = 3
)

// Dataset is a generated set of facts.
type Dataset struct {
	Players []repository.Player
	Events  []repository.Event
	Results []repository.Result
}

// Generator builds datasets from a fixed seed.
type Generator struct {
	faker *gofakeit.Faker
}

// New returns a generator. The same seed always yields the same dataset.
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(uint64(seed))}
}

// Generate creates players and events spread evenly over [from, to] with a
// result for every entrant.
func (g *Generator) Generate(players, events int, from, to time.Time) (Dataset, error) {
	if players < minField || events < 1 {
		return Dataset{}, fmt.Errorf("seed: need at least %d players and 1 event: %w", minField, repository.ErrInvalidInput)
	}
	from, to = model.Day(from), model.Day(to)
	if to.Before(from) {
		return Dataset{}, fmt.Errorf("seed: date range is inverted: %w", repository.ErrInvalidInput)
	}

	ds := Dataset{
		Players: g.players(players),
		Events:  g.events(events, from, to),
	}

	consentRate := make(map[string]float64, len(ds.Players))
	for _, p := range ds.Players {
		consentRate[p.ID] = g.faker.Float64Range(0, 1)
	}

	ids := make([]string, len(ds.Players))
	for i, p := range ds.Players {
		ids[i] = p.ID
	}

	for _, ev := range ds.Events {
		field := g.faker.Number(minField, min(maxField, len(ids)))
		g.faker.ShuffleAnySlice(ids)
		entrants := ids[:field]

		paid := max(1, int(math.Ceil(float64(field)*paidFraction)))
		pool := ev.BuyIn.Mul(decimal.NewFromInt(int64(field)))

		for i, pid := range entrants {
			place := i + 1
			points := math.Round(100*float64(field-i)/float64(field)*100) / 100
			r := repository.Result{
				PlayerID: pid,
				EventID:  ev.ID,
				Points:   &points,
				Consent:  g.faker.Float64Range(0, 1) < consentRate[pid],
			}
			if place <= paid {
				pos := place
				r.PositionOfPrize = &pos
				share := pool.Mul(decimal.NewFromInt(int64(paid - i))).
					Div(decimal.NewFromInt(int64(paid * (paid + 1) / 2))).
					Round(2)
				r.PrizeAmount = &share
			}
			ds.Results = append(ds.Results, r)
		}
	}
	return ds, nil
}

func (g *Generator) players(n int) []repository.Player {
	out := make([]repository.Player, n)
	for i := range out {
		p := repository.Player{
			ID:       fmt.Sprintf("player-%04d", i+1),
			Forename: g.faker.FirstName(),
			Surname:  g.faker.LastName(),
		}
		if g.faker.Number(1, 10) <= 3 {
			p.DisplayName = g.faker.Username()
		}
		out[i] = p
	}
	return out
}

func (g *Generator) events(n int, from, to time.Time) []repository.Event {
	days := int(to.Sub(from).Hours()/24) + 1
	out := make([]repository.Event, n)
	seqByDay := make(map[time.Time]int)
	for i := range out {
		date := from.AddDate(0, 0, i*days/n)
		seqByDay[date]++

		hr := g.faker.Float64Range(0, 1) < highRollerRate
		var buyIn decimal.Decimal
		if hr {
			buyIn = decimal.NewFromInt(int64(g.faker.Number(20, 100) * 100))
		} else {
			buyIn = decimal.NewFromInt(int64(g.faker.Number(1, 15) * 100))
		}

		ev := repository.Event{
			ID:           fmt.Sprintf("event-%04d", i+1),
			Name:         fmt.Sprintf("%s %s", g.faker.City(), eventSuffix(hr)),
			Date:         date,
			Sequence:     seqByDay[date],
			IsHighRoller: hr,
			BuyIn:        &buyIn,
		}
		if g.faker.Bool() {
			ev.SeriesID = fmt.Sprintf("series-%d", g.faker.Number(1, seriesCount))
		}
		if g.faker.Number(1, 10) <= 3 {
			ev.FestivalID = fmt.Sprintf("festival-%d", g.faker.Number(1, festivalCount))
		}
		out[i] = ev
	}
	return out
}

func eventSuffix(highRoller bool) string {
	if highRoller {
		return "High Roller"
	}
	return "Open"
}

// Load writes ds through w in dependency order.
func Load(ctx context.Context, w repository.FactWriter, ds Dataset) error {
	if err := w.SavePlayers(ctx, ds.Players); err != nil {
		return fmt.Errorf("seed players: %w", err)
	}
	if err := w.SaveEvents(ctx, ds.Events); err != nil {
		return fmt.Errorf("seed events: %w", err)
	}
	if err := w.SaveResults(ctx, ds.Results); err != nil {
		return fmt.Errorf("seed results: %w", err)
	}
	return nil
}
