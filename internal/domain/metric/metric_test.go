package metric_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sentrahq/sentra/internal/domain/metric"
)

func TestMetric(t *testing.T) {
	Convey("Given the canonical metric set", t, func() {
		Convey("When listing all metrics", func() {
			all := metric.All()

			Convey("Then every metric should be valid and carry a positive weight", func() {
				So(len(all), ShouldEqual, 9)
				for _, m := range all {
					So(m.Valid(), ShouldBeTrue)
					So(m.Weight(), ShouldBeGreaterThan, 0)
					So(m.Label(), ShouldNotBeEmpty)
				}
			})

			Convey("Then the weights should sum to 1", func() {
				var sum float64
				for _, m := range all {
					sum += m.Weight()
				}
				So(sum, ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("Then priorities should be unique and ordered", func() {
				seen := map[int]bool{}
				for i, m := range all {
					So(seen[m.Priority()], ShouldBeFalse)
					seen[m.Priority()] = true
					So(m.Priority(), ShouldEqual, i)
				}
			})
		})

		Convey("When checking polarity", func() {
			Convey("Then check-in metrics should have lower-is-worse polarity", func() {
				So(metric.SleepHours.HigherIsWorse(), ShouldBeFalse)
				So(metric.SleepQuality.HigherIsWorse(), ShouldBeFalse)
				So(metric.Mood.HigherIsWorse(), ShouldBeFalse)
				So(metric.ActivityLevel.HigherIsWorse(), ShouldBeFalse)
			})

			Convey("Then typing and voice metrics should have higher-is-worse polarity", func() {
				So(metric.TypingAvgIntervalMS.HigherIsWorse(), ShouldBeTrue)
				So(metric.TypingBackspace.HigherIsWorse(), ShouldBeTrue)
				So(metric.VoiceStrain.HigherIsWorse(), ShouldBeTrue)
			})
		})

		Convey("When checking an unknown metric", func() {
			unknown := metric.Metric("heart_rate")

			Convey("Then it should be invalid with a fallback label and last priority", func() {
				So(unknown.Valid(), ShouldBeFalse)
				So(unknown.Label(), ShouldEqual, "heart_rate")
				So(unknown.Priority(), ShouldEqual, len(metric.All()))
			})
		})
	})
}

func TestReduce(t *testing.T) {
	Convey("Given same-day observations", t, func() {
		Convey("When reducing a mean metric", func() {
			v, ok := metric.Mood.Reduce([]float64{4, 6, 8})

			Convey("Then it should average the values", func() {
				So(ok, ShouldBeTrue)
				So(v, ShouldAlmostEqual, 6.0)
			})
		})

		Convey("When reducing fragmentation", func() {
			v, ok := metric.TypingFragmentation.Reduce([]float64{2, 9, 4})

			Convey("Then it should keep the worst session", func() {
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 9.0)
			})
		})

		Convey("When reducing no observations", func() {
			_, ok := metric.Mood.Reduce(nil)

			Convey("Then it should report no value", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}
