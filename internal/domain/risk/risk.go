// Package risk combines per-metric deviations into one composite risk value
// and maps it to a 0-100 wellbeing score.
package risk

import (
	"github.com/sentrahq/sentra/internal/domain/metric"
)

// Default transform anchors: a baseline-typical day (risk 0) maps to a score
// of defaultScoreAtBaseline, and risk climbs toward a score of 0 at roughly
// defaultScoreAtBaseline/defaultPointsPerRiskUnit ≈ 3.
const (
	defaultScoreAtBaseline   = 82.0
	defaultPointsPerRiskUnit = 27.5
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeights overrides individual metric weights. Unlisted metrics keep
// their built-in weight; non-positive overrides are ignored.
func WithWeights(overrides map[metric.Metric]float64) Option {
	return func(a *Aggregator) {
		for m, w := range overrides {
			if w > 0 && m.Valid() {
				a.weights[m] = w
			}
		}
	}
}

// WithTransform sets the risk-to-score anchor points.
func WithTransform(scoreAtBaseline, pointsPerRiskUnit float64) Option {
	return func(a *Aggregator) {
		if scoreAtBaseline >= 0 && scoreAtBaseline <= 100 && pointsPerRiskUnit > 0 {
			a.scoreAtBaseline = scoreAtBaseline
			a.pointsPerRiskUnit = pointsPerRiskUnit
		}
	}
}

// Aggregator computes the weighted composite risk and the wellbeing score.
type Aggregator struct {
	weights           map[metric.Metric]float64
	scoreAtBaseline   float64
	pointsPerRiskUnit float64
}

// NewAggregator creates an Aggregator with the built-in metric weights and
// default transform anchors.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		weights:           metric.Weights(),
		scoreAtBaseline:   defaultScoreAtBaseline,
		pointsPerRiskUnit: defaultPointsPerRiskUnit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Weight returns the effective weight for a metric.
func (a *Aggregator) Weight(m metric.Metric) float64 {
	return a.weights[m]
}

// Aggregate computes the composite risk as the weighted mean of the present
// deviations, renormalized over only the weights of included metrics so that
// missing metrics do not bias the result toward false stability.
//
// ok is false when no metric is included; the day then has no score at all,
// never a defaulted one.
func (a *Aggregator) Aggregate(deviations map[metric.Metric]float64) (riskValue float64, included []metric.Metric, ok bool) {
	var weightSum, weighted float64
	for m, z := range deviations {
		w := a.weights[m]
		if w <= 0 {
			continue
		}
		weighted += z * w
		weightSum += w
		included = append(included, m)
	}
	if weightSum == 0 {
		return 0, nil, false
	}
	return weighted / weightSum, included, true
}

// Wellbeing maps a composite risk value (roughly [-4, 4], risk-oriented) to
// a 0-100 score through a monotonic decreasing transform, clamped.
func (a *Aggregator) Wellbeing(riskValue float64) float64 {
	score := a.scoreAtBaseline - a.pointsPerRiskUnit*riskValue
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
