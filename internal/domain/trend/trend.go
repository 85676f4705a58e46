// Package trend buckets wellbeing scores into status tiers and classifies
// the momentum of the recent score series.
package trend

import (
	"github.com/sentrahq/sentra/internal/domain/model"
)

// Status cut points. Ties at a cut point resolve to the better tier.
const (
	stableFloor = 70.0
	watchFloor  = 45.0
)

// Default momentum thresholds in score points per day. Rapid movement must
// exceed roughly twice the slow threshold.
const (
	defaultSlowSlope  = 0.8
	defaultRapidSlope = 2.0
)

// minMomentumPoints is the minimum number of scored days momentum needs.
const minMomentumPoints = 3

// Status buckets a wellbeing score into its risk tier.
func Status(score float64) model.Status {
	switch {
	case score >= stableFloor:
		return model.StatusStable
	case score >= watchFloor:
		return model.StatusWatch
	default:
		return model.StatusHigh
	}
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithSlopes sets the slow and rapid momentum thresholds.
func WithSlopes(slow, rapid float64) Option {
	return func(c *Classifier) {
		if slow > 0 && rapid >= 2*slow {
			c.slowSlope = slow
			c.rapidSlope = rapid
		}
	}
}

// Classifier computes trend direction and strength from recent scores.
type Classifier struct {
	slowSlope  float64
	rapidSlope float64
}

// NewClassifier creates a Classifier with default thresholds.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		slowSlope:  defaultSlowSlope,
		rapidSlope: defaultRapidSlope,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Momentum classifies the trend of scores ordered oldest first. A falling
// wellbeing score means risk is Rising; an improving one means Recovering.
// With fewer than 3 scored days there is no momentum: both return values
// are empty.
func (c *Classifier) Momentum(scores []float64) (model.MomentumLabel, model.MomentumStrength) {
	if len(scores) < minMomentumPoints {
		return "", ""
	}
	slope := Slope(scores)
	switch {
	case slope <= -c.slowSlope:
		return model.MomentumRising, c.strength(-slope)
	case slope >= c.slowSlope:
		return model.MomentumRecovering, c.strength(slope)
	default:
		return model.MomentumStable, ""
	}
}

func (c *Classifier) strength(magnitude float64) model.MomentumStrength {
	if magnitude >= c.rapidSlope {
		return model.StrengthRapid
	}
	return model.StrengthSlow
}

// Slope fits a least-squares line through the scores (x = 0..n-1) and
// returns its slope in points per step. With fewer than 2 points the slope
// is 0; with exactly 2 it degenerates to the first difference.
func Slope(scores []float64) float64 {
	n := len(scores)
	if n < 2 {
		return 0
	}
	// Closed-form simple linear regression over x = 0..n-1.
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range scores {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}

// Project extrapolates the fitted line forward. It returns ahead projected
// scores clamped to [0, 100], starting one step after the last input point.
// Fewer than 2 inputs yield no projection.
func Project(scores []float64, ahead int) []float64 {
	n := len(scores)
	if n < 2 || ahead <= 0 {
		return nil
	}
	slope := Slope(scores)
	// Intercept from the mean point of the fit.
	var sumY float64
	for _, y := range scores {
		sumY += y
	}
	meanX := float64(n-1) / 2
	meanY := sumY / float64(n)
	intercept := meanY - slope*meanX

	out := make([]float64, 0, ahead)
	for i := 1; i <= ahead; i++ {
		y := intercept + slope*float64(n-1+i)
		if y < 0 {
			y = 0
		}
		if y > 100 {
			y = 100
		}
		out = append(out, y)
	}
	return out
}
