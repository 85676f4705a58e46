// Package org rolls all users' latest scores up into an anonymized team
// snapshot. Only counts and aggregate statistics leave this package.
package org

import (
	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
)

// Default strain tier thresholds: fraction of scored users in Watch/High,
// and fraction with Rising momentum. Half of each marks Moderate.
const (
	defaultWatchHighFrac = 0.30
	defaultRisingFrac    = 0.20
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithStrainThresholds sets the Rising-tier fractions.
func WithStrainThresholds(watchHighFrac, risingFrac float64) Option {
	return func(a *Aggregator) {
		if watchHighFrac > 0 && watchHighFrac <= 1 && risingFrac > 0 && risingFrac <= 1 {
			a.watchHighFrac = watchHighFrac
			a.risingFrac = risingFrac
		}
	}
}

// Aggregator computes org snapshots.
type Aggregator struct {
	watchHighFrac float64
	risingFrac    float64
}

// NewAggregator creates an Aggregator with default thresholds.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		watchHighFrac: defaultWatchHighFrac,
		risingFrac:    defaultRisingFrac,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summarize rolls the latest scores into a snapshot. totalUsers is the
// roster size; users without a score count toward TotalUsers but are
// excluded from every aggregate statistic.
func (a *Aggregator) Summarize(totalUsers int, latest []model.DailyScore) model.OrgSnapshot {
	snap := model.OrgSnapshot{
		TotalUsers:     totalUsers,
		StatusCounts:   map[model.Status]int{model.StatusStable: 0, model.StatusWatch: 0, model.StatusHigh: 0},
		MomentumCounts: map[model.MomentumLabel]int{},
		StrainTier:     model.StrainLow,
	}

	var scoreSum float64
	topDriverCounts := map[metric.Metric]int{}
	for _, s := range latest {
		snap.ScoredUsers++
		scoreSum += s.WellbeingScore
		snap.StatusCounts[s.Status]++
		if s.MomentumLabel != "" {
			snap.MomentumCounts[s.MomentumLabel]++
		}
		if len(s.Drivers) > 0 {
			topDriverCounts[s.Drivers[0].Metric]++
		}
	}
	if snap.ScoredUsers == 0 {
		return snap
	}

	snap.AverageWellbeing = scoreSum / float64(snap.ScoredUsers)
	snap.TopDriver = modeDriver(topDriverCounts)
	snap.StrainTier = a.strain(snap)
	return snap
}

// modeDriver picks the most frequent top driver; ties break on the fixed
// metric priority order so the result is deterministic.
func modeDriver(counts map[metric.Metric]int) metric.Metric {
	var best metric.Metric
	bestCount := 0
	for _, m := range metric.All() {
		c := counts[m]
		if c > bestCount {
			best = m
			bestCount = c
		}
	}
	return best
}

func (a *Aggregator) strain(snap model.OrgSnapshot) model.StrainTier {
	scored := float64(snap.ScoredUsers)
	watchHigh := float64(snap.StatusCounts[model.StatusWatch]+snap.StatusCounts[model.StatusHigh]) / scored
	rising := float64(snap.MomentumCounts[model.MomentumRising]) / scored

	switch {
	case watchHigh > a.watchHighFrac || rising > a.risingFrac:
		return model.StrainRising
	case watchHigh > a.watchHighFrac/2 || rising > a.risingFrac/2:
		return model.StrainModerate
	default:
		return model.StrainLow
	}
}
