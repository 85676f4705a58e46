// Package baseline maintains per-user per-metric personal reference
// distributions over an initial observation window.
package baseline

import (
	"math"
	"time"

	"github.com/sentrahq/sentra/internal/domain/model"
)

// Baseline is the personal reference distribution for one user and metric.
// It folds the first observation of each of the first window days using an
// incremental (Welford) update, so it never replays history, then freezes.
// A frozen baseline represents who this person normally is; a continuously
// drifting baseline would absorb real drift and hide it.
type Baseline struct {
	Mean        float64
	M2          float64 // sum of squared deviations, for the incremental variance
	SampleCount int
	WindowStart time.Time
	WindowEnd   time.Time
	Locked      bool

	// FoldedDays tracks which calendar days have been folded while the
	// baseline is unlocked, keeping Observe idempotent per day and
	// order-independent across days. Bounded by the window size.
	FoldedDays []time.Time
}

// StdDev returns the population standard deviation of the folded samples.
// It is 0 when fewer than 2 samples exist, and 0 for a constant series;
// standardizing callers floor it rather than divide by it directly.
func (b *Baseline) StdDev() float64 {
	if b.SampleCount < 2 {
		return 0
	}
	return math.Sqrt(b.M2 / float64(b.SampleCount))
}

// Usable reports whether the baseline has enough samples to standardize
// against. A constant series is usable: a perfectly steady week is the
// strongest possible reference, not a missing one.
func (b *Baseline) Usable() bool {
	return b.SampleCount >= 2
}

// hasDay reports whether the given calendar day was already folded.
func (b *Baseline) hasDay(day time.Time) bool {
	for _, d := range b.FoldedDays {
		if d.Equal(day) {
			return true
		}
	}
	return false
}

// Fold incorporates one day's reduced value into the running mean/variance.
// It is a no-op when the baseline is locked or the day was already folded;
// it returns true when the value was incorporated and whether this fold
// locked the baseline.
func (b *Baseline) Fold(day time.Time, value float64, windowDays int) (folded, locked bool) {
	day = model.Day(day)
	if b.Locked || b.hasDay(day) {
		return false, false
	}

	b.SampleCount++
	delta := value - b.Mean
	b.Mean += delta / float64(b.SampleCount)
	b.M2 += delta * (value - b.Mean)

	b.FoldedDays = append(b.FoldedDays, day)
	if b.WindowStart.IsZero() || day.Before(b.WindowStart) {
		b.WindowStart = day
	}
	if day.After(b.WindowEnd) {
		b.WindowEnd = day
	}

	if b.SampleCount >= windowDays {
		b.Locked = true
	}
	return true, b.Locked
}
