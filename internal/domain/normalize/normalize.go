// Package normalize validates raw signal payloads and maps them into
// canonical per-day signal records. It never reads or mutates baselines.
package normalize

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
)

// Payload kind names, used for metrics labels and logging.
const (
	KindTyping  = "typing"
	KindCheckin = "checkin"
	KindVoice   = "voice"
)

// ValidationError reports a malformed or out-of-range payload field.
// The submission is rejected and nothing is recorded.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// TypingPayload carries aggregate metrics of one typing session.
// No raw typed content ever reaches the engine.
type TypingPayload struct {
	EventID            string  `json:"event_id,omitempty"`
	AvgIntervalMS      float64 `json:"avg_interval_ms"`
	StdIntervalMS      float64 `json:"std_interval_ms"`
	BackspaceRatio     float64 `json:"backspace_ratio"`
	SessionDurationSec float64 `json:"session_duration_sec"`
	FragmentationCount int     `json:"fragmentation_count"` // pauses > 2s
	LateNight          bool    `json:"late_night"`
}

// CheckinPayload carries the daily mood/sleep/activity self-report.
// Activity arrives either as minutes or as the 0-100 UI slider, which is
// converted to minutes (0-180).
type CheckinPayload struct {
	Mood            float64  `json:"mood"`          // 1-10 emoji wheel scale
	SleepHours      float64  `json:"sleep_hours"`   // 0-24
	SleepQuality    float64  `json:"sleep_quality"` // 1-5
	ActivityMinutes *float64 `json:"activity_minutes,omitempty"`
	ActivitySlider  *float64 `json:"activity_slider,omitempty"` // 0-100
}

// VoicePayload carries a precomputed acoustic strain score. Audio decoding
// and feature extraction happen upstream of this engine.
type VoicePayload struct {
	EventID     string  `json:"event_id,omitempty"`
	StrainScore float64 `json:"strain_score"` // 0-100, higher = more strain
}

const (
	moodMin, moodMax       = 1, 10
	sleepHoursMax          = 24
	sleepQualityMin        = 1
	sleepQualityMax        = 5
	sliderMax              = 100
	sliderToMinutes        = 1.8 // 0-100 slider -> 0-180 minutes
	strainScoreMax         = 100
	maxSessionDurationSec  = 12 * 60 * 60
	maxTypingAvgIntervalMS = 10_000
)

// Signals converts a raw payload into canonical signal records for the given
// user and UTC calendar day. It returns a *ValidationError on any range
// violation, naming the offending field.
func Signals(userID string, day time.Time, payload any, capturedAt time.Time) ([]model.SignalRecord, error) {
	day = model.Day(day)
	switch p := payload.(type) {
	case TypingPayload:
		return typingSignals(userID, day, p, capturedAt)
	case *TypingPayload:
		return typingSignals(userID, day, *p, capturedAt)
	case CheckinPayload:
		return checkinSignals(userID, day, p, capturedAt)
	case *CheckinPayload:
		return checkinSignals(userID, day, *p, capturedAt)
	case VoicePayload:
		return voiceSignals(userID, day, p, capturedAt)
	case *VoicePayload:
		return voiceSignals(userID, day, *p, capturedAt)
	default:
		return nil, invalid("payload", "unknown payload type %T", payload)
	}
}

// Kind names the payload for logging and metrics; unknown types yield "".
func Kind(payload any) string {
	switch payload.(type) {
	case TypingPayload, *TypingPayload:
		return KindTyping
	case CheckinPayload, *CheckinPayload:
		return KindCheckin
	case VoicePayload, *VoicePayload:
		return KindVoice
	default:
		return ""
	}
}

func typingSignals(userID string, day time.Time, p TypingPayload, capturedAt time.Time) ([]model.SignalRecord, error) {
	switch {
	case p.AvgIntervalMS < 0 || p.AvgIntervalMS > maxTypingAvgIntervalMS:
		return nil, invalid("avg_interval_ms", "must be within [0, %d]", maxTypingAvgIntervalMS)
	case p.StdIntervalMS < 0:
		return nil, invalid("std_interval_ms", "must not be negative")
	case p.BackspaceRatio < 0 || p.BackspaceRatio > 1:
		return nil, invalid("backspace_ratio", "must be within [0, 1]")
	case p.SessionDurationSec <= 0 || p.SessionDurationSec > maxSessionDurationSec:
		return nil, invalid("session_duration_sec", "must be within (0, %d]", maxSessionDurationSec)
	case p.FragmentationCount < 0:
		return nil, invalid("fragmentation_count", "must not be negative")
	}
	records := []model.SignalRecord{
		record(userID, day, metric.TypingAvgIntervalMS, p.AvgIntervalMS, capturedAt),
		record(userID, day, metric.TypingStdMS, p.StdIntervalMS, capturedAt),
		record(userID, day, metric.TypingBackspace, p.BackspaceRatio, capturedAt),
		record(userID, day, metric.TypingFragmentation, float64(p.FragmentationCount), capturedAt),
	}
	if p.LateNight {
		for i := range records {
			records[i].LateNight = true
		}
	}
	return records, nil
}

func checkinSignals(userID string, day time.Time, p CheckinPayload, capturedAt time.Time) ([]model.SignalRecord, error) {
	switch {
	case p.Mood < moodMin || p.Mood > moodMax:
		return nil, invalid("mood", "must be within [%d, %d]", moodMin, moodMax)
	case p.SleepHours < 0 || p.SleepHours > sleepHoursMax:
		return nil, invalid("sleep_hours", "must be within [0, %d]", sleepHoursMax)
	case p.SleepQuality < sleepQualityMin || p.SleepQuality > sleepQualityMax:
		return nil, invalid("sleep_quality", "must be within [%d, %d]", sleepQualityMin, sleepQualityMax)
	}

	activity, err := activityMinutes(p)
	if err != nil {
		return nil, err
	}

	records := []model.SignalRecord{
		record(userID, day, metric.Mood, p.Mood, capturedAt),
		record(userID, day, metric.SleepHours, p.SleepHours, capturedAt),
		record(userID, day, metric.SleepQuality, p.SleepQuality, capturedAt),
	}
	if activity != nil {
		records = append(records, record(userID, day, metric.ActivityLevel, *activity, capturedAt))
	}
	return records, nil
}

func activityMinutes(p CheckinPayload) (*float64, error) {
	if p.ActivityMinutes != nil {
		if *p.ActivityMinutes < 0 {
			return nil, invalid("activity_minutes", "must not be negative")
		}
		return p.ActivityMinutes, nil
	}
	if p.ActivitySlider != nil {
		if *p.ActivitySlider < 0 || *p.ActivitySlider > sliderMax {
			return nil, invalid("activity_slider", "must be within [0, %d]", sliderMax)
		}
		minutes := *p.ActivitySlider * sliderToMinutes
		return &minutes, nil
	}
	return nil, nil
}

func voiceSignals(userID string, day time.Time, p VoicePayload, capturedAt time.Time) ([]model.SignalRecord, error) {
	if p.StrainScore < 0 || p.StrainScore > strainScoreMax {
		return nil, invalid("strain_score", "must be within [0, %d]", strainScoreMax)
	}
	return []model.SignalRecord{
		record(userID, day, metric.VoiceStrain, p.StrainScore, capturedAt),
	}, nil
}

func record(userID string, day time.Time, m metric.Metric, value float64, capturedAt time.Time) model.SignalRecord {
	return model.SignalRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		Date:       day,
		Metric:     m,
		Value:      value,
		CapturedAt: capturedAt.UTC(),
	}
}
