package normalize_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/normalize"
)

func day() time.Time {
	return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
}

func floatPtr(v float64) *float64 { return &v }

func TestCheckinSignals(t *testing.T) {
	Convey("Given a check-in payload", t, func() {
		now := day().Add(9 * time.Hour)

		Convey("When the payload is complete with activity minutes", func() {
			recs, err := normalize.Signals("u1", now, normalize.CheckinPayload{
				Mood:            7,
				SleepHours:      7.5,
				SleepQuality:    4,
				ActivityMinutes: floatPtr(45),
			}, now)

			Convey("Then one record per metric should be produced", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 4)

				byMetric := map[metric.Metric]float64{}
				for _, r := range recs {
					byMetric[r.Metric] = r.Value
					So(r.UserID, ShouldEqual, "u1")
					So(r.Date.Equal(day()), ShouldBeTrue)
					So(r.ID, ShouldNotBeEmpty)
				}
				So(byMetric[metric.Mood], ShouldEqual, 7)
				So(byMetric[metric.SleepHours], ShouldEqual, 7.5)
				So(byMetric[metric.SleepQuality], ShouldEqual, 4)
				So(byMetric[metric.ActivityLevel], ShouldEqual, 45)
			})
		})

		Convey("When activity arrives as the UI slider", func() {
			recs, err := normalize.Signals("u1", now, normalize.CheckinPayload{
				Mood:           6,
				SleepHours:     8,
				SleepQuality:   3,
				ActivitySlider: floatPtr(50),
			}, now)

			Convey("Then the slider should convert to minutes", func() {
				So(err, ShouldBeNil)
				for _, r := range recs {
					if r.Metric == metric.ActivityLevel {
						So(r.Value, ShouldAlmostEqual, 90.0)
					}
				}
			})
		})

		Convey("When activity is omitted", func() {
			recs, err := normalize.Signals("u1", now, normalize.CheckinPayload{
				Mood:         6,
				SleepHours:   8,
				SleepQuality: 3,
			}, now)

			Convey("Then no activity record should be produced", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 3)
			})
		})

		Convey("When a field is out of range", func() {
			cases := []normalize.CheckinPayload{
				{Mood: 0, SleepHours: 8, SleepQuality: 3},
				{Mood: 11, SleepHours: 8, SleepQuality: 3},
				{Mood: 6, SleepHours: 25, SleepQuality: 3},
				{Mood: 6, SleepHours: 8, SleepQuality: 6},
				{Mood: 6, SleepHours: 8, SleepQuality: 3, ActivitySlider: floatPtr(101)},
			}

			Convey("Then the submission should be rejected with a validation error", func() {
				for _, p := range cases {
					recs, err := normalize.Signals("u1", now, p, now)
					So(recs, ShouldBeNil)
					var verr *normalize.ValidationError
					So(errors.As(err, &verr), ShouldBeTrue)
					So(verr.Field, ShouldNotBeEmpty)
				}
			})
		})
	})
}

func TestTypingSignals(t *testing.T) {
	Convey("Given a typing session payload", t, func() {
		now := day().Add(14 * time.Hour)

		Convey("When the payload is within range", func() {
			recs, err := normalize.Signals("u1", now, &normalize.TypingPayload{
				EventID:            "evt-1",
				AvgIntervalMS:      220,
				StdIntervalMS:      48,
				BackspaceRatio:     0.12,
				SessionDurationSec: 1800,
				FragmentationCount: 3,
			}, now)

			Convey("Then four typing records should be produced", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 4)

				byMetric := map[metric.Metric]float64{}
				for _, r := range recs {
					byMetric[r.Metric] = r.Value
				}
				So(byMetric[metric.TypingAvgIntervalMS], ShouldEqual, 220)
				So(byMetric[metric.TypingStdMS], ShouldEqual, 48)
				So(byMetric[metric.TypingBackspace], ShouldAlmostEqual, 0.12)
				So(byMetric[metric.TypingFragmentation], ShouldEqual, 3)
			})

			Convey("Then a daytime session should not be flagged late-night", func() {
				So(err, ShouldBeNil)
				for _, r := range recs {
					So(r.LateNight, ShouldBeFalse)
				}
			})
		})

		Convey("When the session is reported as late-night", func() {
			recs, err := normalize.Signals("u1", now, normalize.TypingPayload{
				AvgIntervalMS:      260,
				StdIntervalMS:      60,
				BackspaceRatio:     0.2,
				SessionDurationSec: 900,
				FragmentationCount: 5,
				LateNight:          true,
			}, now)

			Convey("Then every record should carry the late-night flag", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 4)
				for _, r := range recs {
					So(r.LateNight, ShouldBeTrue)
				}
			})
		})

		Convey("When the backspace ratio is out of range", func() {
			_, err := normalize.Signals("u1", now, normalize.TypingPayload{
				AvgIntervalMS:      220,
				BackspaceRatio:     1.5,
				SessionDurationSec: 1800,
			}, now)

			Convey("Then it should name the offending field", func() {
				var verr *normalize.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, "backspace_ratio")
			})
		})

		Convey("When the session duration is zero", func() {
			_, err := normalize.Signals("u1", now, normalize.TypingPayload{
				AvgIntervalMS: 220,
			}, now)

			Convey("Then it should be rejected", func() {
				var verr *normalize.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, "session_duration_sec")
			})
		})
	})
}

func TestVoiceSignals(t *testing.T) {
	Convey("Given a voice strain payload", t, func() {
		now := day().Add(16 * time.Hour)

		Convey("When the strain score is within range", func() {
			recs, err := normalize.Signals("u1", now, normalize.VoicePayload{StrainScore: 63}, now)

			Convey("Then a single voice record should be produced", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Metric, ShouldEqual, metric.VoiceStrain)
				So(recs[0].Value, ShouldEqual, 63)
			})
		})

		Convey("When the strain score exceeds 100", func() {
			_, err := normalize.Signals("u1", now, normalize.VoicePayload{StrainScore: 101}, now)

			Convey("Then it should be rejected", func() {
				var verr *normalize.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, "strain_score")
			})
		})
	})
}

func TestKind(t *testing.T) {
	Convey("Given payloads of each kind", t, func() {
		Convey("Then Kind should name them for metrics labels", func() {
			So(normalize.Kind(normalize.TypingPayload{}), ShouldEqual, normalize.KindTyping)
			So(normalize.Kind(&normalize.CheckinPayload{}), ShouldEqual, normalize.KindCheckin)
			So(normalize.Kind(normalize.VoicePayload{}), ShouldEqual, normalize.KindVoice)
			So(normalize.Kind(42), ShouldBeEmpty)
		})
	})
}

func TestUnknownPayload(t *testing.T) {
	Convey("Given an unsupported payload type", t, func() {
		_, err := normalize.Signals("u1", day(), "bogus", day())

		Convey("Then it should be rejected with a validation error", func() {
			var verr *normalize.ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(verr.Field, ShouldEqual, "payload")
		})
	})
}
