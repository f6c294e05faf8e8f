package consent_test

import (
	"testing"

	"github.com/okian/tourboard/internal/domain/consent"
	"github.com/okian/tourboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDisplayName(t *testing.T) {
	Convey("Given a player with every name field", t, func() {
		id := model.PlayerIdentity{PlayerID: "p1", Forename: "Jane", Surname: "Doe", DisplayName: "JD the Shark"}

		Convey("When consent was given", func() {
			Convey("Then the display name is preferred", func() {
				So(consent.DisplayName(true, id), ShouldEqual, "JD the Shark")
			})
		})

		Convey("When consent was not given", func() {
			Convey("Then initials are shown", func() {
				So(consent.DisplayName(false, id), ShouldEqual, "J. D.")
			})
		})
	})

	Convey("Given a consenting player without a display name", t, func() {
		id := model.PlayerIdentity{Forename: " Jane ", Surname: "Doe", DisplayName: "   "}

		Convey("Then forename and surname are joined", func() {
			So(consent.DisplayName(true, id), ShouldEqual, "Jane Doe")
		})

		Convey("Then a single name still works", func() {
			So(consent.DisplayName(true, model.PlayerIdentity{Surname: "Doe"}), ShouldEqual, "Doe")
		})
	})

	Convey("Given a player with no names at all", t, func() {
		id := model.PlayerIdentity{PlayerID: "p9"}

		Convey("Then both policies fall back to Anonymous", func() {
			So(consent.DisplayName(true, id), ShouldEqual, consent.Anonymous)
			So(consent.DisplayName(false, id), ShouldEqual, consent.Anonymous)
		})
	})

	Convey("Given a non-consenting player with only one name", t, func() {
		Convey("Then only that initial is shown", func() {
			So(consent.DisplayName(false, model.PlayerIdentity{Forename: "Jane"}), ShouldEqual, "J.")
			So(consent.DisplayName(false, model.PlayerIdentity{Surname: "Doe"}), ShouldEqual, "D.")
		})
	})

	Convey("Given names starting with multi-byte letters", t, func() {
		id := model.PlayerIdentity{Forename: "Łukasz", Surname: "Ölander"}

		Convey("Then initials keep the whole letter", func() {
			So(consent.DisplayName(false, id), ShouldEqual, "Ł. Ö.")
		})
	})
}

func TestConsented(t *testing.T) {
	Convey("Given consent flags from scope and lifetime history", t, func() {
		Convey("Then any yes wins", func() {
			So(consent.Consented(model.PlayerAggregate{AnyConsent: true}, model.PlayerIdentity{}), ShouldBeTrue)
			So(consent.Consented(model.PlayerAggregate{}, model.PlayerIdentity{EverConsented: true}), ShouldBeTrue)
			So(consent.Consented(model.PlayerAggregate{}, model.PlayerIdentity{}), ShouldBeFalse)
		})

		Convey("Then flipping a flag to true never masks a shown player", func() {
			for _, agg := range []bool{false, true} {
				for _, ever := range []bool{false, true} {
					before := consent.Consented(model.PlayerAggregate{AnyConsent: agg}, model.PlayerIdentity{EverConsented: ever})
					after := consent.Consented(model.PlayerAggregate{AnyConsent: true}, model.PlayerIdentity{EverConsented: ever})
					if before {
						So(after, ShouldBeTrue)
					}
				}
			}
		})
	})
}
