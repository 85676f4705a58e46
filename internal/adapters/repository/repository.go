// Package repository defines the persistence collaborators the engine
// depends on: the append-only signal log, baseline and score persistence,
// the user roster, and intervention completion flags.
package repository

import (
	"context"
	"time"

	"github.com/sentrahq/sentra/internal/domain/baseline"
	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
)

// DatedValue is one (calendar day, value) observation read back from the log.
type DatedValue struct {
	Date  time.Time
	Value float64
}

// SignalLog is the durable per-user append-only signal log.
type SignalLog interface {
	// Append writes one immutable record and registers its user as active.
	Append(ctx context.Context, rec model.SignalRecord) error

	// ReadRange returns observations for one user and metric within
	// [from, to], ordered by date then capture time.
	ReadRange(ctx context.Context, userID string, m metric.Metric, from, to time.Time) ([]DatedValue, error)
}

// BaselineStore persists per-user per-metric baselines.
// It satisfies baseline.Store.
type BaselineStore interface {
	Load(ctx context.Context, userID string, m metric.Metric) (*baseline.Baseline, error)
	Save(ctx context.Context, userID string, m metric.Metric, b *baseline.Baseline) error
}

// ScoreStore persists derived daily scores.
type ScoreStore interface {
	// SaveScore upserts the score for its user and date.
	SaveScore(ctx context.Context, s model.DailyScore) error

	// LoadLatest returns the most recent score for a user, or ErrNotFound.
	LoadLatest(ctx context.Context, userID string) (model.DailyScore, error)

	// LoadScoreRange returns scores within [from, to] ordered by date.
	LoadScoreRange(ctx context.Context, userID string, from, to time.Time) ([]model.DailyScore, error)
}

// Roster lists users known to the system, for the org rollup.
type Roster interface {
	ListActiveUserIDs(ctx context.Context) ([]string, error)
}

// InterventionStore keeps per-user completion flags for suggested actions.
type InterventionStore interface {
	// MarkCompleted flags one intervention id as done for the user and day.
	MarkCompleted(ctx context.Context, userID string, day time.Time, interventionID string) error

	// Completions returns the set of completed intervention ids for the day.
	Completions(ctx context.Context, userID string, day time.Time) (map[string]bool, error)
}

// Store bundles every persistence collaborator behind one implementation.
type Store interface {
	SignalLog
	BaselineStore
	ScoreStore
	Roster
	InterventionStore
}
