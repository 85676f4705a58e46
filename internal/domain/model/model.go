// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/sentrahq/sentra/internal/domain/metric"
)

// Status buckets the wellbeing score into a risk tier.
type Status string

// Status tiers. Ties at the cut points resolve to the better tier.
const (
	StatusStable Status = "Stable"
	StatusWatch  Status = "Watch"
	StatusHigh   Status = "High"
)

// MomentumLabel describes the direction of the recent score trend,
// phrased in risk terms: a falling score means risk is Rising.
type MomentumLabel string

// Momentum labels.
const (
	MomentumRising     MomentumLabel = "Rising"
	MomentumStable     MomentumLabel = "Stable"
	MomentumRecovering MomentumLabel = "Recovering"
)

// MomentumStrength qualifies how fast the trend is moving.
type MomentumStrength string

// Momentum strengths. Empty means no strength applies (flat trend or
// not enough history).
const (
	StrengthSlow  MomentumStrength = "slow"
	StrengthRapid MomentumStrength = "rapid"
)

// Confidence describes how much the score can be trusted given the
// available history.
type Confidence string

// Confidence levels.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// StrainTier classifies aggregate org load.
type StrainTier string

// Org strain tiers.
const (
	StrainLow      StrainTier = "Low"
	StrainModerate StrainTier = "Moderate"
	StrainRising   StrainTier = "Rising"
)

// SignalRecord is one observed value for one user, metric and calendar day.
// Records are immutable and append-only; several records per day per metric
// are allowed (e.g. multiple typing sessions) and are reduced before scoring.
type SignalRecord struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	Date       time.Time     `json:"date"` // UTC calendar day, truncated to midnight
	Metric     metric.Metric `json:"metric_name"`
	Value      float64       `json:"value"`
	CapturedAt time.Time     `json:"captured_at"`

	// LateNight marks records from a session reported as late-night use.
	// It annotates the log for review; scoring does not read it.
	LateNight bool `json:"late_night,omitempty"`
}

// DriverContribution names one metric's share of the day's deviation.
type DriverContribution struct {
	Metric          metric.Metric `json:"metric"`
	Label           string        `json:"label"`
	Direction       string        `json:"direction"` // "up" = toward risk, "down" = away
	ContributionPct float64       `json:"contribution_pct"`
}

// DailyScore is the derived wellbeing result for one user and date.
// It is recomputed, never hand-edited; recomputing with the same inputs
// yields an identical value.
type DailyScore struct {
	UserID           string               `json:"user_id"`
	Date             time.Time            `json:"date"`
	WellbeingScore   float64              `json:"wellbeing_score"` // 0-100, higher is better
	Status           Status               `json:"status"`
	MomentumLabel    MomentumLabel        `json:"momentum_label,omitempty"`
	MomentumStrength MomentumStrength     `json:"momentum_strength,omitempty"`
	Confidence       Confidence           `json:"confidence"`
	Drivers          []DriverContribution `json:"driver_contributions"`
}

// Projection is a forward-extrapolated score point for the trend view.
type Projection struct {
	Date           time.Time `json:"date"`
	ProjectedScore float64   `json:"projected_score"`
}

// OrgSnapshot is the anonymized team rollup. It carries counts and aggregate
// statistics only; no per-user identifier ever appears here.
type OrgSnapshot struct {
	TotalUsers       int                   `json:"total_users"`
	ScoredUsers      int                   `json:"scored_users"`
	StatusCounts     map[Status]int        `json:"counts"`
	MomentumCounts   map[MomentumLabel]int `json:"momentum_distribution"`
	AverageWellbeing float64               `json:"average_wellbeing"`
	TopDriver        metric.Metric         `json:"top_driver,omitempty"`
	StrainTier       StrainTier            `json:"system_strain"`
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
