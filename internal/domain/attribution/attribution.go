// Package attribution ranks which metrics drove a day's deviation from
// baseline, feeding insight text, intervention selection and driver chips.
package attribution

import (
	"math"
	"sort"

	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
)

// maxDrivers caps how many drivers are surfaced.
const maxDrivers = 3

// Weigher supplies the effective weight per metric, normally the risk
// aggregator so attribution and scoring always agree.
type Weigher interface {
	Weight(m metric.Metric) float64
}

// Rank orders the included metrics by weighted deviation magnitude and keeps
// the top 3. Direction is the risk direction: "up" when the deviation pushes
// toward risk. ContributionPct is the metric's share of the total weighted
// deviation magnitude across all included metrics, so the returned list sums
// to at most 100.
//
// Ties break on the fixed metric priority order (sleep > mood > voice >
// typing) to keep attribution deterministic.
func Rank(deviations map[metric.Metric]float64, w Weigher) []model.DriverContribution {
	type scored struct {
		m         metric.Metric
		z         float64
		magnitude float64
	}

	var items []scored
	var total float64
	for m, z := range deviations {
		mag := math.Abs(z) * w.Weight(m)
		if mag == 0 {
			continue
		}
		items = append(items, scored{m: m, z: z, magnitude: mag})
		total += mag
	}
	if total == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].magnitude != items[j].magnitude {
			return items[i].magnitude > items[j].magnitude
		}
		return items[i].m.Priority() < items[j].m.Priority()
	})

	n := len(items)
	if n > maxDrivers {
		n = maxDrivers
	}
	out := make([]model.DriverContribution, 0, n)
	for _, it := range items[:n] {
		direction := "down"
		if it.z > 0 {
			direction = "up"
		}
		out = append(out, model.DriverContribution{
			Metric:          it.m,
			Label:           it.m.Label(),
			Direction:       direction,
			ContributionPct: 100 * it.magnitude / total,
		})
	}
	return out
}
