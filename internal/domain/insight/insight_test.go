package insight_test

import (
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sentrahq/sentra/internal/domain/insight"
	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
)

func driver(m metric.Metric, label string) model.DriverContribution {
	return model.DriverContribution{Metric: m, Label: label, Direction: "up", ContributionPct: 50}
}

func TestText(t *testing.T) {
	Convey("Given driver attributions", t, func() {
		day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

		Convey("When one driver is present", func() {
			text := insight.Text([]model.DriverContribution{
				driver(metric.SleepHours, "sleep amount"),
			}, day)

			Convey("Then the text should name it", func() {
				So(text, ShouldContainSubstring, "sleep amount")
				So(text, ShouldNotContainSubstring, "%s")
			})
		})

		Convey("When two drivers are present", func() {
			text := insight.Text([]model.DriverContribution{
				driver(metric.SleepHours, "sleep amount"),
				driver(metric.Mood, "mood"),
			}, day)

			Convey("Then both should be joined with and", func() {
				So(text, ShouldContainSubstring, "sleep amount and mood")
			})
		})

		Convey("When three drivers are present", func() {
			text := insight.Text([]model.DriverContribution{
				driver(metric.SleepHours, "sleep amount"),
				driver(metric.Mood, "mood"),
				driver(metric.VoiceStrain, "voice strain"),
			}, day)

			Convey("Then all three should be listed", func() {
				So(text, ShouldContainSubstring, "sleep amount, mood, and voice strain")
			})
		})

		Convey("When no driver is present", func() {
			text := insight.Text(nil, day)

			Convey("Then a generic fallback should be used", func() {
				So(text, ShouldContainSubstring, "signals")
			})
		})

		Convey("When recomputing for the same date", func() {
			drivers := []model.DriverContribution{driver(metric.Mood, "mood")}
			first := insight.Text(drivers, day)

			Convey("Then the text should be byte-for-byte identical", func() {
				for i := 0; i < 5; i++ {
					So(insight.Text(drivers, day), ShouldEqual, first)
				}
			})
		})

		Convey("When the date changes across consecutive days", func() {
			drivers := []model.DriverContribution{driver(metric.Mood, "mood")}
			texts := map[string]bool{}
			for i := 0; i < 3; i++ {
				texts[insight.Text(drivers, day.AddDate(0, 0, i))] = true
			}

			Convey("Then the template should rotate", func() {
				So(len(texts), ShouldBeGreaterThan, 1)
			})
		})

		Convey("When checking verb agreement", func() {
			one := insight.Text([]model.DriverContribution{driver(metric.Mood, "mood")}, day)
			two := insight.Text([]model.DriverContribution{
				driver(metric.Mood, "mood"),
				driver(metric.SleepHours, "sleep amount"),
			}, day)

			Convey("Then has/have should match the driver count on the two-verb template", func() {
				if strings.Contains(one, "shifted from your usual pattern") {
					So(one, ShouldContainSubstring, "mood has")
					So(two, ShouldContainSubstring, "mood and sleep amount have")
				}
			})
		})
	})
}
