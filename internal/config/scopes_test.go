package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tourboard/internal/config"
	"github.com/okian/tourboard/internal/domain/model"
)

func TestScopeConfigDescriptor(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)

	convey.Convey("Given a season scope with explicit dates", t, func() {
		sc := config.ScopeConfig{
			Key:           "season-2024",
			DateFrom:      "2024-01-01",
			DateTo:        "2024-12-31",
			ScoringMethod: "best_x",
			Cap:           10,
			SeriesIDs:     []string{"wpt"},
			FestivalIDs:   []string{"", "festival-1"},
			MaxBuyIn:      "2000.50",
			BonusRules:    []config.BonusRuleConfig{{Kind: " Back_To_Back_Wins ", Points: 5}},
		}

		d, err := sc.Descriptor(asOf)

		convey.Convey("Then every field is converted", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(d.Key, convey.ShouldEqual, "season-2024")
			convey.So(model.FormatDay(d.DateFrom), convey.ShouldEqual, "2024-01-01")
			convey.So(model.FormatDay(d.DateTo), convey.ShouldEqual, "2024-12-31")
			convey.So(d.Method, convey.ShouldEqual, model.ScoringBestX)
			convey.So(d.Cap, convey.ShouldEqual, 10)
			convey.So(d.MaxBuyIn.String(), convey.ShouldEqual, "2000.5")
			convey.So(len(d.SeriesOrFestivalIDs), convey.ShouldEqual, 2)
			convey.So(d.BonusRules, convey.ShouldResemble, []model.BonusRule{{Kind: model.BonusBackToBackWins, Points: 5}})
			convey.So(d.HighRoller, convey.ShouldEqual, model.HighRollerAny)
		})
	})

	convey.Convey("Given an all-time high roller scope", t, func() {
		sc := config.ScopeConfig{Key: "hr", AllTime: true, HighRollerOnly: true}

		d, err := sc.Descriptor(asOf)

		convey.Convey("Then the window runs from 1970 to the asOf day", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(model.FormatDay(d.DateFrom), convey.ShouldEqual, "1970-01-01")
			convey.So(model.FormatDay(d.DateTo), convey.ShouldEqual, "2024-06-15")
			convey.So(d.HighRoller, convey.ShouldEqual, model.HighRollerOnly)
			convey.So(d.Method, convey.ShouldEqual, model.ScoringCumulative)
			convey.So(d.SeriesOrFestivalIDs, convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a scope that starts after asOf", t, func() {
		sc := config.ScopeConfig{Key: "next-season", DateFrom: "2025-01-01"}

		d, err := sc.Descriptor(asOf)

		convey.Convey("Then date_to is not moved before date_from", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(d.DateTo.Equal(d.DateFrom), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given malformed scopes", t, func() {
		cases := []config.ScopeConfig{
			{Key: ""},
			{Key: "no-dates"},
			{Key: "bad-from", DateFrom: "01/02/2024"},
			{Key: "bad-to", DateFrom: "2024-01-01", DateTo: "soon"},
			{Key: "inverted", DateFrom: "2024-02-01", DateTo: "2024-01-01"},
			{Key: "bad-method", AllTime: true, ScoringMethod: "median"},
			{Key: "bad-buy-in", AllTime: true, MaxBuyIn: "lots"},
		}

		convey.Convey("Then each is rejected as an invalid scope", func() {
			for _, sc := range cases {
				_, err := sc.Descriptor(asOf)
				convey.So(errors.Is(err, model.ErrInvalidScope), convey.ShouldBeTrue)
			}
		})
	})
}

func TestCatalog(t *testing.T) {
	convey.Convey("Given the default scopes", t, func() {
		c, err := config.NewCatalog(config.DefaultScopes())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When listing", func() {
			scopes := c.Scopes()

			convey.Convey("Then configuration order is kept", func() {
				convey.So(scopes[0].Key, convey.ShouldEqual, "all-time")
				convey.So(scopes[1].Key, convey.ShouldEqual, "high-roller")
			})
		})

		convey.Convey("When resolving an unknown key", func() {
			_, err := c.Descriptor("nope", time.Now())

			convey.Convey("Then ErrUnknownScope is returned", func() {
				convey.So(errors.Is(err, model.ErrUnknownScope), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When resolving a known key", func() {
			d, err := c.Descriptor("high-roller", time.Now())

			convey.Convey("Then the descriptor is built", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(d.EffectiveMethod(), convey.ShouldEqual, model.ScoringBestX)
			})
		})
	})

	convey.Convey("Given duplicate keys", t, func() {
		_, err := config.NewCatalog([]config.ScopeConfig{
			{Key: "a", AllTime: true},
			{Key: "a", AllTime: true},
		})

		convey.Convey("Then the catalog is rejected", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
