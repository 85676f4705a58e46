package app_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sentrahq/sentra/internal/adapters/repository"
	"github.com/sentrahq/sentra/internal/app"
	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
	"github.com/sentrahq/sentra/internal/domain/normalize"
	"github.com/sentrahq/sentra/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

var baseDay = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// harness bundles an engine with a controllable clock.
type harness struct {
	store   *repository.MemoryStore
	engine  *app.Engine
	current time.Time
}

func newHarness() *harness {
	h := &harness{
		store:   repository.NewMemoryStore(),
		current: baseDay.Add(10 * time.Hour),
	}
	h.engine = app.New(h.store,
		app.WithLogger(logger.Get()),
		app.WithClock(func() time.Time { return h.current }),
	)
	return h
}

func (h *harness) onDay(n int) {
	h.current = baseDay.AddDate(0, 0, n).Add(10 * time.Hour)
}

func floatPtr(v float64) *float64 { return &v }

// stableWeek submits seven days of alternating signals whose final day sits
// exactly on the accumulated mean, so the seventh day scores at baseline.
func stableWeek(ctx context.Context, h *harness, userID string) error {
	type dayInput struct {
		mood, sleep, quality, activity float64
		avgMS, stdMS, backspace        float64
		frag                           int
		voice                          float64
	}
	lo := dayInput{mood: 5, sleep: 6, quality: 3, activity: 50, avgMS: 190, stdMS: 35, backspace: 0.08, frag: 2, voice: 25}
	hi := dayInput{mood: 7, sleep: 8, quality: 5, activity: 70, avgMS: 210, stdMS: 45, backspace: 0.12, frag: 4, voice: 35}
	mid := dayInput{mood: 6, sleep: 7, quality: 4, activity: 60, avgMS: 200, stdMS: 40, backspace: 0.10, frag: 3, voice: 30}

	for d := 0; d < 7; d++ {
		h.onDay(d)
		in := lo
		if d%2 == 1 {
			in = hi
		}
		if d == 6 {
			in = mid
		}

		if _, err := h.engine.RecordSignal(ctx, userID, normalize.CheckinPayload{
			Mood:            in.mood,
			SleepHours:      in.sleep,
			SleepQuality:    in.quality,
			ActivityMinutes: floatPtr(in.activity),
		}); err != nil {
			return err
		}
		if _, err := h.engine.RecordSignal(ctx, userID, normalize.TypingPayload{
			EventID:            fmt.Sprintf("%s-typing-%d", userID, d),
			AvgIntervalMS:      in.avgMS,
			StdIntervalMS:      in.stdMS,
			BackspaceRatio:     in.backspace,
			SessionDurationSec: 1800,
			FragmentationCount: in.frag,
		}); err != nil {
			return err
		}
		if _, err := h.engine.RecordSignal(ctx, userID, normalize.VoicePayload{
			EventID:     fmt.Sprintf("%s-voice-%d", userID, d),
			StrainScore: in.voice,
		}); err != nil {
			return err
		}
	}
	return nil
}

func TestComputeScoreInsufficientData(t *testing.T) {
	Convey("Given a brand-new user", t, func() {
		ctx := context.Background()
		h := newHarness()

		Convey("When no signal was ever submitted", func() {
			_, err := h.engine.ComputeScore(ctx, "u1", h.engine.Today())

			Convey("Then there should be no score at all", func() {
				So(errors.Is(err, app.ErrInsufficientData), ShouldBeTrue)
			})
		})

		Convey("When only a single day of signals exists", func() {
			_, err := h.engine.RecordSignal(ctx, "u1", normalize.CheckinPayload{
				Mood: 6, SleepHours: 7, SleepQuality: 4,
			})
			So(err, ShouldBeNil)

			_, err = h.engine.ComputeScore(ctx, "u1", h.engine.Today())

			Convey("Then a one-sample baseline should still yield no score", func() {
				So(errors.Is(err, app.ErrInsufficientData), ShouldBeTrue)
			})
		})
	})
}

func TestStableUserScoring(t *testing.T) {
	Convey("Given a user with a full stable week", t, func() {
		ctx := context.Background()
		h := newHarness()
		So(stableWeek(ctx, h, "u1"), ShouldBeNil)

		Convey("When scoring the seventh day", func() {
			score, err := h.engine.ComputeScore(ctx, "u1", h.engine.Today())

			Convey("Then a baseline-typical day should be Stable", func() {
				So(err, ShouldBeNil)
				So(score.WellbeingScore, ShouldAlmostEqual, 82.0, 0.5)
				So(score.Status, ShouldEqual, model.StatusStable)
			})

			Convey("Then confidence should be high with full coverage", func() {
				So(err, ShouldBeNil)
				So(score.Confidence, ShouldEqual, model.ConfidenceHigh)
			})

			Convey("Then momentum should be present", func() {
				So(err, ShouldBeNil)
				So(score.MomentumLabel, ShouldNotBeEmpty)
			})
		})

		Convey("When recomputing the same day with unchanged inputs", func() {
			first, err := h.engine.ComputeScore(ctx, "u1", h.engine.Today())
			So(err, ShouldBeNil)
			second, err := h.engine.ComputeScore(ctx, "u1", h.engine.Today())
			So(err, ShouldBeNil)

			Convey("Then the result should be identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestDriftDetection(t *testing.T) {
	Convey("Given a user whose week was stable", t, func() {
		ctx := context.Background()
		h := newHarness()
		So(stableWeek(ctx, h, "u1"), ShouldBeNil)

		Convey("When the eighth day collapses", func() {
			h.onDay(7)
			_, err := h.engine.RecordSignal(ctx, "u1", normalize.CheckinPayload{
				Mood: 2, SleepHours: 3, SleepQuality: 1, ActivityMinutes: floatPtr(10),
			})
			So(err, ShouldBeNil)
			_, err = h.engine.RecordSignal(ctx, "u1", normalize.TypingPayload{
				EventID:            "u1-typing-bad",
				AvgIntervalMS:      320,
				StdIntervalMS:      90,
				BackspaceRatio:     0.3,
				SessionDurationSec: 1500,
				FragmentationCount: 11,
			})
			So(err, ShouldBeNil)

			score, err := h.engine.ComputeScore(ctx, "u1", h.engine.Today())

			Convey("Then the score should fall into the High tier", func() {
				So(err, ShouldBeNil)
				So(score.WellbeingScore, ShouldBeLessThan, 45)
				So(score.Status, ShouldEqual, model.StatusHigh)
			})

			Convey("Then mood should lead the drivers, pointing toward risk", func() {
				So(err, ShouldBeNil)
				So(score.Drivers, ShouldNotBeEmpty)
				So(score.Drivers[0].Metric, ShouldEqual, metric.Mood)
				So(score.Drivers[0].Direction, ShouldEqual, "up")
				So(len(score.Drivers), ShouldBeLessThanOrEqualTo, 3)
			})

			Convey("Then momentum should read as rapidly rising risk", func() {
				So(err, ShouldBeNil)
				So(score.MomentumLabel, ShouldEqual, model.MomentumRising)
				So(score.MomentumStrength, ShouldEqual, model.StrengthRapid)
			})

			Convey("And the locked baseline should not absorb the bad day", func() {
				b, lerr := h.store.Load(ctx, "u1", metric.Mood)
				So(lerr, ShouldBeNil)
				So(b.Locked, ShouldBeTrue)
				So(b.Mean, ShouldAlmostEqual, 6.0, 1e-9)
			})
		})
	})
}

func TestConstantBaselineStillScores(t *testing.T) {
	Convey("Given a user whose week was perfectly steady", t, func() {
		ctx := context.Background()
		h := newHarness()
		for d := 0; d < 7; d++ {
			h.onDay(d)
			_, err := h.engine.RecordSignal(ctx, "u2", normalize.CheckinPayload{
				Mood: 6, SleepHours: 7, SleepQuality: 4,
			})
			So(err, ShouldBeNil)
		}

		Convey("When the eighth day collapses", func() {
			h.onDay(7)
			_, err := h.engine.RecordSignal(ctx, "u2", normalize.CheckinPayload{
				Mood: 2, SleepHours: 3, SleepQuality: 4,
			})
			So(err, ShouldBeNil)

			score, err := h.engine.ComputeScore(ctx, "u2", h.engine.Today())

			Convey("Then zero-spread baselines should not starve the score", func() {
				So(err, ShouldBeNil)
				So(errors.Is(err, app.ErrInsufficientData), ShouldBeFalse)
			})

			Convey("Then the departures should saturate and drop the score hard", func() {
				So(err, ShouldBeNil)
				// mood and sleep clamp at 4, sleep quality sits on its mean:
				// risk = (0.18*4 + 0.14*4) / 0.46, score = 82 - 27.5*risk.
				So(score.WellbeingScore, ShouldAlmostEqual, 5.478, 0.01)
				So(score.Status, ShouldEqual, model.StatusHigh)
			})

			Convey("Then mood and sleep should lead the drivers, toward risk", func() {
				So(err, ShouldBeNil)
				So(len(score.Drivers), ShouldBeGreaterThanOrEqualTo, 2)
				So(score.Drivers[0].Metric, ShouldEqual, metric.Mood)
				So(score.Drivers[0].Direction, ShouldEqual, "up")
				So(score.Drivers[1].Metric, ShouldEqual, metric.SleepHours)
				So(score.Drivers[1].Direction, ShouldEqual, "up")
			})

			Convey("Then a check-in-only history should stay low confidence", func() {
				So(err, ShouldBeNil)
				So(score.Confidence, ShouldEqual, model.ConfidenceLow)
				So(score.MomentumLabel, ShouldBeEmpty)
			})
		})
	})
}

func TestLowConfidenceHidesMomentum(t *testing.T) {
	Convey("Given a user with check-ins only", t, func() {
		ctx := context.Background()
		h := newHarness()

		for d := 0; d < 5; d++ {
			h.onDay(d)
			_, err := h.engine.RecordSignal(ctx, "u2", normalize.CheckinPayload{
				Mood:         5 + float64(d%3),
				SleepHours:   6 + float64(d%2),
				SleepQuality: 3 + float64(d%2),
			})
			So(err, ShouldBeNil)
		}

		Convey("When scoring before the window fills", func() {
			score, err := h.engine.ComputeScore(ctx, "u2", h.engine.Today())

			Convey("Then confidence should be low and momentum hidden", func() {
				So(err, ShouldBeNil)
				So(score.Confidence, ShouldEqual, model.ConfidenceLow)
				So(score.MomentumLabel, ShouldBeEmpty)
				So(score.MomentumStrength, ShouldBeEmpty)
			})
		})
	})
}

func TestDuplicateEvents(t *testing.T) {
	Convey("Given a typing event with a client-supplied id", t, func() {
		ctx := context.Background()
		h := newHarness()
		payload := normalize.TypingPayload{
			EventID:            "evt-42",
			AvgIntervalMS:      200,
			StdIntervalMS:      40,
			BackspaceRatio:     0.1,
			SessionDurationSec: 1800,
			FragmentationCount: 2,
		}

		Convey("When submitting it twice", func() {
			dup1, err := h.engine.RecordSignal(ctx, "u1", payload)
			So(err, ShouldBeNil)
			dup2, err := h.engine.RecordSignal(ctx, "u1", payload)
			So(err, ShouldBeNil)

			Convey("Then the second submission should be acknowledged as a duplicate", func() {
				So(dup1, ShouldBeFalse)
				So(dup2, ShouldBeTrue)
			})

			Convey("And only one set of records should exist", func() {
				today := h.engine.Today()
				obs, err := h.store.ReadRange(ctx, "u1", metric.TypingAvgIntervalMS, today, today)
				So(err, ShouldBeNil)
				So(obs, ShouldHaveLength, 1)
			})
		})

		Convey("When another user submits the same event id", func() {
			_, err := h.engine.RecordSignal(ctx, "u1", payload)
			So(err, ShouldBeNil)
			dup, err := h.engine.RecordSignal(ctx, "other", payload)
			So(err, ShouldBeNil)

			Convey("Then it should not collide across users", func() {
				So(dup, ShouldBeFalse)
			})
		})
	})
}

func TestValidationRejectsSubmission(t *testing.T) {
	Convey("Given an out-of-range check-in", t, func() {
		ctx := context.Background()
		h := newHarness()

		_, err := h.engine.RecordSignal(ctx, "u1", normalize.CheckinPayload{
			Mood: 99, SleepHours: 7, SleepQuality: 4,
		})

		Convey("Then the submission should be rejected", func() {
			var verr *normalize.ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(verr.Field, ShouldEqual, "mood")
		})

		Convey("And nothing should have been recorded", func() {
			today := h.engine.Today()
			obs, rerr := h.store.ReadRange(ctx, "u1", metric.SleepHours, today, today)
			So(rerr, ShouldBeNil)
			So(obs, ShouldBeEmpty)
		})
	})
}

func TestGetTrend(t *testing.T) {
	Convey("Given a user with a scored week", t, func() {
		ctx := context.Background()
		h := newHarness()
		So(stableWeek(ctx, h, "u1"), ShouldBeNil)

		Convey("When fetching the 7-day trend", func() {
			scores, projection, err := h.engine.GetTrend(ctx, "u1", 7)

			Convey("Then scored days should come back in date order", func() {
				So(err, ShouldBeNil)
				So(len(scores), ShouldBeGreaterThanOrEqualTo, 3)
				for i := 1; i < len(scores); i++ {
					So(scores[i].Date.After(scores[i-1].Date), ShouldBeTrue)
				}
			})

			Convey("Then a 5-day projection should extend past the last score", func() {
				So(err, ShouldBeNil)
				So(projection, ShouldHaveLength, 5)
				last := scores[len(scores)-1].Date
				So(projection[0].Date.Equal(last.AddDate(0, 0, 1)), ShouldBeTrue)
				for _, p := range projection {
					So(p.ProjectedScore, ShouldBeBetweenOrEqual, 0, 100)
				}
			})
		})

		Convey("When requesting an oversized window", func() {
			scores, _, err := h.engine.GetTrend(ctx, "u1", 100000)

			Convey("Then the window should clamp instead of failing", func() {
				So(err, ShouldBeNil)
				So(len(scores), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestOrgSnapshot(t *testing.T) {
	Convey("Given two scored users and one without signals", t, func() {
		ctx := context.Background()
		h := newHarness()
		So(stableWeek(ctx, h, "u1"), ShouldBeNil)
		So(stableWeek(ctx, h, "u2"), ShouldBeNil)

		// A user visible to the roster but never scorable.
		h.onDay(6)
		_, err := h.engine.RecordSignal(ctx, "u3", normalize.CheckinPayload{
			Mood: 6, SleepHours: 7, SleepQuality: 4,
		})
		So(err, ShouldBeNil)

		Convey("When summarizing the org", func() {
			snap, err := h.engine.GetOrgSnapshot(ctx)

			Convey("Then users without a score should count only toward the total", func() {
				So(err, ShouldBeNil)
				So(snap.TotalUsers, ShouldEqual, 3)
				So(snap.ScoredUsers, ShouldEqual, 2)
				So(snap.AverageWellbeing, ShouldBeGreaterThan, 70)
				So(snap.StatusCounts[model.StatusStable], ShouldEqual, 2)
			})
		})
	})
}

func TestInsightAndInterventions(t *testing.T) {
	Convey("Given a user who drifted today", t, func() {
		ctx := context.Background()
		h := newHarness()
		So(stableWeek(ctx, h, "u1"), ShouldBeNil)

		h.onDay(7)
		_, err := h.engine.RecordSignal(ctx, "u1", normalize.CheckinPayload{
			Mood: 2, SleepHours: 3, SleepQuality: 1,
		})
		So(err, ShouldBeNil)

		Convey("When fetching the insight", func() {
			text, actions, err := h.engine.Insight(ctx, "u1")

			Convey("Then the text should name the leading driver", func() {
				So(err, ShouldBeNil)
				So(text, ShouldContainSubstring, "mood")
			})

			Convey("Then 1-2 actions should be suggested", func() {
				So(err, ShouldBeNil)
				So(len(actions), ShouldBeBetweenOrEqual, 1, 2)
			})
		})

		Convey("When completing an intervention", func() {
			items, err := h.engine.Interventions(ctx, "u1")
			So(err, ShouldBeNil)
			So(items, ShouldNotBeEmpty)
			So(items[0].Completed, ShouldBeFalse)

			So(h.engine.CompleteIntervention(ctx, "u1", items[0].ID), ShouldBeNil)
			again, err := h.engine.Interventions(ctx, "u1")

			Convey("Then the completion flag should flip for today", func() {
				So(err, ShouldBeNil)
				So(again[0].Completed, ShouldBeTrue)
			})
		})
	})

	Convey("Given a user with no score at all", t, func() {
		ctx := context.Background()
		h := newHarness()

		Convey("When fetching the insight", func() {
			_, _, err := h.engine.Insight(ctx, "ghost")

			Convey("Then the no-score state should surface", func() {
				So(errors.Is(err, app.ErrInsufficientData), ShouldBeTrue)
			})
		})
	})
}
