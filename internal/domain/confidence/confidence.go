// Package confidence scores how reliable a day's result is given the amount
// of history behind it.
package confidence

import (
	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
)

// Input summarizes the user's signal history for the estimator.
type Input struct {
	// CheckinDays is the count of distinct days with check-in data.
	CheckinDays int

	// WindowDays is the configured baseline window size.
	WindowDays int

	// FamiliesEver is the set of signal families ever observed for the user.
	FamiliesEver map[metric.Family]bool

	// RecentTypingOrVoice reports a typing or voice sample within the
	// recent-coverage window (typically the last 3 days).
	RecentTypingOrVoice bool
}

// Estimate classifies reliability:
//
//	high:   baseline window filled with check-ins AND a fresh typing or
//	        voice sample backs it up
//	medium: baseline locked but recent multi-signal coverage is partial
//	low:    baseline still unlocked, or only one signal family ever observed
//
// Low confidence gates presentation: momentum must not be surfaced as
// actionable below it.
func Estimate(in Input) model.Confidence {
	if in.CheckinDays < in.WindowDays || len(in.FamiliesEver) <= 1 {
		return model.ConfidenceLow
	}
	if in.RecentTypingOrVoice {
		return model.ConfidenceHigh
	}
	return model.ConfidenceMedium
}
