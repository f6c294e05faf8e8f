package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tourboard/internal/adapters/repository"
	service "github.com/okian/tourboard/internal/app"
	"github.com/okian/tourboard/internal/config"
	"github.com/okian/tourboard/internal/domain/model"
	"github.com/okian/tourboard/pkg/logger"
)

func day(s string) time.Time {
	d, err := model.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func pts(v float64) *float64 { return &v }
func pos(n int) *int         { return &n }

// fixture holds three players: a consenting winner, a runner-up who never
// consented and Q, who finishes third.
func fixture() *repository.MemoryStore {
	return repository.NewMemoryStore(
		repository.WithPlayers(
			repository.Player{ID: "a", Forename: "Ada", Surname: "Lovelace"},
			repository.Player{ID: "b", Forename: "Bob", Surname: "Marley"},
			repository.Player{ID: "q", Forename: "Quinn", Surname: "Fabray", DisplayName: "QF"},
		),
		repository.WithEvents(
			repository.Event{ID: "e1", Date: day("2024-01-03"), Sequence: 1},
			repository.Event{ID: "e2", Date: day("2024-01-05"), Sequence: 1},
			repository.Event{ID: "late", Date: day("2024-02-01"), Sequence: 1},
		),
		repository.WithResults(
			repository.Result{PlayerID: "a", EventID: "e1", Points: pts(200), PositionOfPrize: pos(1), Consent: true},
			repository.Result{PlayerID: "b", EventID: "e1", Points: pts(150), PositionOfPrize: pos(2)},
			repository.Result{PlayerID: "q", EventID: "e1", Points: pts(50), PositionOfPrize: pos(3)},
			repository.Result{PlayerID: "a", EventID: "e2", Points: pts(100)},
			repository.Result{PlayerID: "q", EventID: "e2", Points: pts(50), Consent: true},
			repository.Result{PlayerID: "q", EventID: "late", Points: pts(1000), PositionOfPrize: pos(1)},
		),
	)
}

func catalog() *config.Catalog {
	c, err := config.NewCatalog([]config.ScopeConfig{
		{Key: "season-2024", Name: "Season 2024", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
	})
	if err != nil {
		panic(err)
	}
	return c
}

func newService(store *repository.MemoryStore, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithFactStore(store),
		service.WithSnapshotStore(store),
		service.WithCatalog(catalog()),
		service.WithLogger(logger.Nop()),
	}
	return service.New(append(base, opts...)...)
}

func ids(rows []model.RankedRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.PlayerID
	}
	return out
}

func TestComputeStandings(t *testing.T) {
	ctx := context.Background()

	Convey("Given a season with three players", t, func() {
		store := fixture()
		svc := newService(store)

		Convey("When standings are computed as of mid January", func() {
			rows, err := svc.Standings(ctx, "season-2024", day("2024-01-10"), false)
			So(err, ShouldBeNil)

			Convey("Then results after as_of are ignored", func() {
				So(cmp.Diff([]string{"a", "b", "q"}, ids(rows)), ShouldBeEmpty)
				So(rows[0].FinalPoints, ShouldEqual, 300)
				So(rows[2].FinalPoints, ShouldEqual, 100)
			})

			Convey("Then names follow consent", func() {
				So(rows[0].DisplayName, ShouldEqual, "Ada Lovelace")
				So(rows[1].DisplayName, ShouldEqual, "B. M.")
				So(rows[2].DisplayName, ShouldEqual, "QF")
			})
		})

		Convey("When as_of is after the late event", func() {
			rows, err := svc.Standings(ctx, "season-2024", day("2024-03-01"), false)
			So(err, ShouldBeNil)

			Convey("Then the late win counts", func() {
				So(rows[0].PlayerID, ShouldEqual, "q")
				So(rows[0].Wins, ShouldEqual, 1)
			})
		})

		Convey("When as_of precedes the scope", func() {
			desc := model.ScopeDescriptor{Key: "x", DateFrom: day("2024-06-01"), DateTo: day("2024-12-31")}
			rows, err := svc.ComputeStandings(ctx, desc, day("2024-01-10"), false)

			Convey("Then an empty list is returned", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})

		Convey("When the descriptor is inverted", func() {
			desc := model.ScopeDescriptor{Key: "x", DateFrom: day("2024-06-01"), DateTo: day("2024-01-01")}
			_, err := svc.ComputeStandings(ctx, desc, day("2024-07-01"), false)

			Convey("Then ErrInvalidScope is returned", func() {
				So(errors.Is(err, model.ErrInvalidScope), ShouldBeTrue)
			})
		})

		Convey("When as_of is missing", func() {
			_, err := svc.Standings(ctx, "season-2024", time.Time{}, false)

			Convey("Then ErrInvalidScope is returned", func() {
				So(errors.Is(err, model.ErrInvalidScope), ShouldBeTrue)
			})
		})

		Convey("When the scope is not in the catalog", func() {
			_, err := svc.Standings(ctx, "nope", day("2024-01-10"), false)

			Convey("Then ErrUnknownScope is returned", func() {
				So(errors.Is(err, model.ErrUnknownScope), ShouldBeTrue)
			})
		})
	})

	Convey("Given a fact store that fails", t, func() {
		boom := errors.New("connection refused")
		svc := newService(fixture(), service.WithFactStore(failingStore{err: boom}))

		Convey("When standings are computed", func() {
			_, err := svc.Standings(ctx, "season-2024", day("2024-01-10"), false)

			Convey("Then the failure is wrapped, not swallowed", func() {
				So(errors.Is(err, service.ErrAdapterFailure), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})
}

func TestMovement(t *testing.T) {
	ctx := context.Background()

	Convey("Given Q was 7th in the snapshot of 2024-01-01", t, func() {
		store := fixture()
		So(store.UpsertSnapshot(ctx, "season-2024", day("2024-01-01"), []model.SnapshotEntry{
			{PlayerID: "a", Position: 1},
			{PlayerID: "q", Position: 7},
		}), ShouldBeNil)
		svc := newService(store)

		Convey("When standings are computed with movement", func() {
			rows, err := svc.Standings(ctx, "season-2024", day("2024-01-10"), true)
			So(err, ShouldBeNil)

			Convey("Then Q, now 3rd, moved up by 4", func() {
				So(rows[2].PlayerID, ShouldEqual, "q")
				So(rows[2].Movement, ShouldEqual, 4)
			})

			Convey("Then an unchanged player and a new entrant show 0", func() {
				So(rows[0].Movement, ShouldEqual, 0)
				So(rows[1].Movement, ShouldEqual, 0)
			})
		})

		Convey("When computed without movement", func() {
			rows, err := svc.Standings(ctx, "season-2024", day("2024-01-10"), false)
			So(err, ShouldBeNil)

			Convey("Then every movement is 0", func() {
				for _, r := range rows {
					So(r.Movement, ShouldEqual, 0)
				}
			})
		})
	})
}

func TestPersistSnapshot(t *testing.T) {
	ctx := context.Background()

	Convey("Given a season with an existing snapshot", t, func() {
		store := fixture()
		svc := newService(store)
		asOf := day("2024-01-10")
		_, err := svc.SnapshotScope(ctx, "season-2024", asOf)
		So(err, ShouldBeNil)

		Convey("When an empty row list is persisted for the same day", func() {
			err := svc.PersistSnapshot(ctx, "season-2024", asOf, nil)

			Convey("Then nothing is deleted or inserted", func() {
				So(err, ShouldBeNil)
				prior, err := store.FetchLatestSnapshot(ctx, "season-2024", day("2024-01-11"))
				So(err, ShouldBeNil)
				So(len(prior), ShouldEqual, 3)
			})
		})

		Convey("When the same day is snapshotted again", func() {
			n, err := svc.SnapshotScope(ctx, "season-2024", asOf)

			Convey("Then exactly one entry per player remains", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)
				prior, err := store.FetchLatestSnapshot(ctx, "season-2024", day("2024-01-11"))
				So(err, ShouldBeNil)
				So(len(prior), ShouldEqual, 3)
				So(store.SnapshotDates("season-2024"), ShouldHaveLength, 1)
			})
		})

		Convey("When the scope key is empty", func() {
			err := svc.PersistSnapshot(ctx, "", asOf, nil)

			Convey("Then ErrInvalidScope is returned", func() {
				So(errors.Is(err, model.ErrInvalidScope), ShouldBeTrue)
			})
		})
	})
}

func TestPlayerStanding(t *testing.T) {
	ctx := context.Background()

	Convey("Given a season", t, func() {
		svc := newService(fixture())

		Convey("When a ranked player is requested", func() {
			row, err := svc.PlayerStanding(ctx, "season-2024", "b", day("2024-01-10"), false)

			Convey("Then their row is returned", func() {
				So(err, ShouldBeNil)
				So(row.Position, ShouldEqual, 2)
			})
		})

		Convey("When an unranked player is requested", func() {
			_, err := svc.PlayerStanding(ctx, "season-2024", "zed", day("2024-01-10"), false)

			Convey("Then ErrNotRanked is returned", func() {
				So(errors.Is(err, service.ErrNotRanked), ShouldBeTrue)
			})
		})
	})
}

func TestScopes(t *testing.T) {
	Convey("Given the default catalog", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))

		Convey("Then every default scope is listed in order", func() {
			scopes := svc.Scopes()
			So(len(scopes), ShouldEqual, len(config.DefaultScopes()))
			So(scopes[0].Key, ShouldEqual, "all-time")
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService(fixture())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When enqueueing before Start", func() {
			_, err := svc.EnqueueSnapshot(ctx, "season-2024", day("2024-01-10"))

			Convey("Then ErrNotStarted is returned", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestEnqueueSnapshot(t *testing.T) {
	Convey("Given a started service whose store blocks until released", t, func() {
		ctx := context.Background()

		mem := fixture()
		store := newGatedStore(mem)
		svc := newService(mem,
			service.WithFactStore(store),
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
		)
		So(svc.Start(ctx), ShouldBeNil)

		asOf := day("2024-01-10")
		dup, err := svc.EnqueueSnapshot(ctx, "season-2024", asOf)
		So(err, ShouldBeNil)
		So(dup, ShouldBeFalse)
		<-store.entered

		Convey("When the same job is enqueued while in flight", func() {
			dup, err := svc.EnqueueSnapshot(ctx, "season-2024", asOf)

			Convey("Then it is reported as a duplicate", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
			})
		})

		Convey("When an unknown scope is enqueued", func() {
			_, err := svc.EnqueueSnapshot(ctx, "nope", asOf)

			Convey("Then ErrUnknownScope is returned", func() {
				So(errors.Is(err, model.ErrUnknownScope), ShouldBeTrue)
			})
		})

		Convey("When the queue fills up", func() {
			var last error
			for i := 1; i <= 5 && last == nil; i++ {
				_, last = svc.EnqueueSnapshot(ctx, "season-2024", asOf.AddDate(0, 0, i))
			}

			Convey("Then ErrBackpressure is returned", func() {
				So(errors.Is(last, service.ErrBackpressure), ShouldBeTrue)
			})
		})

		Convey("When the store is released", func() {
			store.open()
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the snapshot is written and the claim released", func() {
				So(mem.SnapshotDates("season-2024"), ShouldHaveLength, 1)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})

		Reset(func() {
			store.open()
			_ = svc.Stop(ctx)
		})
	})
}
