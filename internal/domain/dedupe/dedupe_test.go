package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	dedupe "github.com/okian/tourboard/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When claiming a key for the first time", func() {
			seen := d.SeenAndRecord(ctx, "season@2024-01-01")

			Convey("Then it is newly recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And claiming it again reports it as seen", func() {
				So(d.SeenAndRecord(ctx, "season@2024-01-01"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And after release it can be claimed again", func() {
				d.Unrecord(ctx, "season@2024-01-01")
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "season@2024-01-01"), ShouldBeFalse)
			})
		})

		Convey("When releasing an unknown key", func() {
			Convey("Then nothing happens", func() {
				So(func() { d.Unrecord(ctx, "missing") }, ShouldNotPanic)
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))

		Convey("When more keys than the bound are claimed", func() {
			d.SeenAndRecord(ctx, "a")
			d.SeenAndRecord(ctx, "b")
			d.SeenAndRecord(ctx, "c")

			Convey("Then the oldest claim is evicted", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a deduper with a claim ttl", t, func() {
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		d := dedupe.NewInMemoryDeduper(
			dedupe.WithTTL(time.Minute),
			dedupe.WithClock(func() time.Time { return now }),
		)
		d.SeenAndRecord(ctx, "k")

		Convey("When the claim is still fresh", func() {
			now = now.Add(30 * time.Second)

			Convey("Then it blocks the key", func() {
				So(d.SeenAndRecord(ctx, "k"), ShouldBeTrue)
			})
		})

		Convey("When the claim has expired", func() {
			now = now.Add(2 * time.Minute)

			Convey("Then the key can be claimed again", func() {
				So(d.SeenAndRecord(ctx, "k"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given concurrent claims for the same key", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "hot") {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one caller wins", func() {
			So(winners, ShouldEqual, 1)
		})
	})
}

func TestJobKey(t *testing.T) {
	Convey("Given a scope and a timestamp", t, func() {
		asOf := time.Date(2024, 3, 9, 22, 15, 0, 0, time.UTC)

		Convey("Then the key uses the calendar day", func() {
			So(dedupe.JobKey("high-roller", asOf), ShouldEqual, "high-roller@2024-03-09")
			So(dedupe.JobKey("x", asOf), ShouldNotEqual, fmt.Sprint("x@", asOf))
		})
	})
}
