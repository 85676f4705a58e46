package confidence_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sentrahq/sentra/internal/domain/confidence"
	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
)

func TestEstimate(t *testing.T) {
	Convey("Given a confidence estimator", t, func() {
		multi := map[metric.Family]bool{metric.FamilyCheckin: true, metric.FamilyTyping: true}

		Convey("When the baseline window is not yet filled", func() {
			c := confidence.Estimate(confidence.Input{
				CheckinDays:         3,
				WindowDays:          7,
				FamiliesEver:        multi,
				RecentTypingOrVoice: true,
			})

			Convey("Then confidence should be low regardless of coverage", func() {
				So(c, ShouldEqual, model.ConfidenceLow)
			})
		})

		Convey("When only one signal family was ever observed", func() {
			c := confidence.Estimate(confidence.Input{
				CheckinDays:  10,
				WindowDays:   7,
				FamiliesEver: map[metric.Family]bool{metric.FamilyCheckin: true},
			})

			Convey("Then confidence should be low", func() {
				So(c, ShouldEqual, model.ConfidenceLow)
			})
		})

		Convey("When history is deep and a recent passive sample exists", func() {
			c := confidence.Estimate(confidence.Input{
				CheckinDays:         10,
				WindowDays:          7,
				FamiliesEver:        multi,
				RecentTypingOrVoice: true,
			})

			Convey("Then confidence should be high", func() {
				So(c, ShouldEqual, model.ConfidenceHigh)
			})
		})

		Convey("When history is deep but passive coverage has gone stale", func() {
			c := confidence.Estimate(confidence.Input{
				CheckinDays:         10,
				WindowDays:          7,
				FamiliesEver:        multi,
				RecentTypingOrVoice: false,
			})

			Convey("Then confidence should be medium", func() {
				So(c, ShouldEqual, model.ConfidenceMedium)
			})
		})
	})
}
