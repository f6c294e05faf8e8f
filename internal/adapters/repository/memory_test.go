package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tourboard/internal/adapters/repository"
	"github.com/okian/tourboard/internal/domain/model"
)

func day(s string) time.Time {
	t, err := model.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func pts(v float64) *float64 { return &v }
func pos(v int) *int         { return &v }

func fixtureStore() *repository.MemoryStore {
	buyIn := decimal.RequireFromString("1050")
	return repository.NewMemoryStore(
		repository.WithPlayers(
			repository.Player{ID: "p1", Forename: "Jane", Surname: "Doe"},
			repository.Player{ID: "p2", Forename: "Max", Surname: "Power", DisplayName: "maxp"},
		),
		repository.WithEvents(
			repository.Event{ID: "e1", Date: day("2024-01-05")},
			repository.Event{ID: "e2", Date: day("2024-02-10"), IsHighRoller: true, BuyIn: &buyIn},
			repository.Event{ID: "e3", Date: day("2023-12-01")},
		),
		repository.WithResults(
			repository.Result{PlayerID: "p1", EventID: "e1", Points: pts(10), PositionOfPrize: pos(1)},
			repository.Result{PlayerID: "p2", EventID: "e1", Points: pts(8), PositionOfPrize: pos(2)},
			repository.Result{PlayerID: "p1", EventID: "e2", Points: pts(30)},
			repository.Result{PlayerID: "p2", EventID: "e3", Points: pts(4), Consent: true},
		),
	)
}

func TestMemoryStoreFacts(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with players, events and results", t, func() {
		s := fixtureStore()

		Convey("When fetching a date window", func() {
			facts, err := s.FetchResultFacts(ctx, repository.FactQuery{
				DateFrom: day("2024-01-01"),
				DateTo:   day("2024-12-31"),
			})

			Convey("Then only events inside the window are joined, in chronological order", func() {
				So(err, ShouldBeNil)
				So(len(facts), ShouldEqual, 3)
				So(facts[0].EventID, ShouldEqual, "e1")
				So(facts[0].PlayerID, ShouldEqual, "p1")
				So(facts[1].PlayerID, ShouldEqual, "p2")
				So(facts[2].EventID, ShouldEqual, "e2")
				So(facts[2].IsHighRoller, ShouldBeTrue)
				So(facts[2].BuyIn.String(), ShouldEqual, "1050")
			})
		})

		Convey("When pushing down the high-roller predicate", func() {
			facts, err := s.FetchResultFacts(ctx, repository.FactQuery{
				DateFrom:       day("2020-01-01"),
				DateTo:         day("2030-01-01"),
				HighRollerOnly: true,
			})

			Convey("Then only high-roller results are returned", func() {
				So(err, ShouldBeNil)
				So(len(facts), ShouldEqual, 1)
				So(facts[0].EventID, ShouldEqual, "e2")
			})
		})

		Convey("When fetching identities", func() {
			ids, err := s.FetchPlayerIdentity(ctx, []string{"p1", "p2", "ghost"})

			Convey("Then unknown ids are omitted and consent spans every result", func() {
				So(err, ShouldBeNil)
				So(len(ids), ShouldEqual, 2)
				So(ids["p1"].EverConsented, ShouldBeFalse)
				So(ids["p2"].EverConsented, ShouldBeTrue)
				So(ids["p2"].DisplayName, ShouldEqual, "maxp")
			})
		})

		Convey("When saving a result for an unknown event", func() {
			err := s.SaveResults(ctx, []repository.Result{{PlayerID: "p1", EventID: "nope"}})

			Convey("Then ErrNotFound is returned and nothing is written", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When saving an event without a date", func() {
			err := s.SaveEvents(ctx, []repository.Event{{ID: "e9"}})

			Convey("Then ErrInvalidInput is returned", func() {
				So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := s.FetchResultFacts(cctx, repository.FactQuery{})

			Convey("Then the context error is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestMemoryStoreSnapshots(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty snapshot store", t, func() {
		s := repository.NewMemoryStore()
		entries := []model.SnapshotEntry{
			{PlayerID: "p1", Position: 1, Points: 30},
			{PlayerID: "p2", Position: 2, Points: 12},
		}

		Convey("When no snapshot exists", func() {
			got, err := s.FetchLatestSnapshot(ctx, "season", day("2024-01-10"))

			Convey("Then an empty slice is returned", func() {
				So(err, ShouldBeNil)
				So(got, ShouldNotBeNil)
				So(len(got), ShouldEqual, 0)
			})
		})

		Convey("When the same snapshot is written twice", func() {
			So(s.UpsertSnapshot(ctx, "season", day("2024-01-01"), entries), ShouldBeNil)
			So(s.UpsertSnapshot(ctx, "season", day("2024-01-01"), entries), ShouldBeNil)

			Convey("Then exactly one entry per player is kept", func() {
				got, err := s.FetchLatestSnapshot(ctx, "season", day("2024-01-02"))
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].ScopeKey, ShouldEqual, "season")
				So(got[0].SnapshotDate.Equal(day("2024-01-01")), ShouldBeTrue)
				So(len(s.SnapshotDates("season")), ShouldEqual, 1)
			})
		})

		Convey("When a snapshot is rewritten with fewer rows", func() {
			So(s.UpsertSnapshot(ctx, "season", day("2024-01-01"), entries), ShouldBeNil)
			So(s.UpsertSnapshot(ctx, "season", day("2024-01-01"), entries[:1]), ShouldBeNil)

			Convey("Then the old rows are replaced, not merged", func() {
				got, err := s.FetchLatestSnapshot(ctx, "season", day("2024-01-02"))
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
			})
		})

		Convey("When several dates exist", func() {
			So(s.UpsertSnapshot(ctx, "season", day("2024-01-01"), entries), ShouldBeNil)
			So(s.UpsertSnapshot(ctx, "season", day("2024-01-08"), entries[:1]), ShouldBeNil)
			So(s.UpsertSnapshot(ctx, "other", day("2024-01-09"), entries), ShouldBeNil)

			Convey("Then the newest date strictly before the cutoff is returned", func() {
				got, err := s.FetchLatestSnapshot(ctx, "season", day("2024-01-08"))
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)

				got, err = s.FetchLatestSnapshot(ctx, "season", day("2024-01-09"))
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
			})
		})

		Convey("When entries repeat a player", func() {
			err := s.UpsertSnapshot(ctx, "season", day("2024-01-01"), []model.SnapshotEntry{
				{PlayerID: "p1", Position: 1}, {PlayerID: "p1", Position: 2},
			})

			Convey("Then the write is rejected", func() {
				So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
				So(len(s.SnapshotDates("season")), ShouldEqual, 0)
			})
		})

		Convey("When the scope key is missing", func() {
			err := s.UpsertSnapshot(ctx, "", day("2024-01-01"), entries)

			Convey("Then the write is rejected", func() {
				So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}
