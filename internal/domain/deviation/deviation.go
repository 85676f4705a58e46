// Package deviation standardizes a day's metric value against the user's
// personal baseline.
package deviation

import (
	"github.com/sentrahq/sentra/internal/domain/baseline"
	"github.com/sentrahq/sentra/internal/domain/metric"
)

// Clamp bounds for the standardized deviation, limiting outlier influence.
const (
	minZ = -4.0
	maxZ = 4.0
)

// epsStd floors the standard deviation so a constant baseline still
// standardizes: any departure from a perfectly steady series saturates at
// the clamp instead of dropping the metric for the day.
const epsStd = 1e-6

// Score returns the risk-oriented standardized deviation of value against b.
// Positive always means "trending toward risk", regardless of the metric's
// natural polarity: the sign is flipped for metrics where lower values are
// unhealthy (sleep, mood, activity).
//
// ok is false when the baseline has fewer than 2 samples; the caller must
// exclude the metric from aggregation for that day rather than treat the
// deviation as 0.
func Score(b *baseline.Baseline, m metric.Metric, value float64) (z float64, ok bool) {
	if b == nil || !b.Usable() {
		return 0, false
	}
	std := b.StdDev()
	if std < epsStd {
		std = epsStd
	}
	z = (value - b.Mean) / std
	if !m.HigherIsWorse() {
		z = -z
	}
	if z > maxZ {
		z = maxZ
	}
	if z < minZ {
		z = minZ
	}
	return z, true
}
