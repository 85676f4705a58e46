// Package metric defines the canonical signal metrics and their scoring traits.
package metric

// Metric identifies one canonical per-day signal dimension.
type Metric string

// Canonical metrics produced by the normalizer.
const (
	TypingAvgIntervalMS Metric = "typing_avg_interval_ms"
	TypingStdMS         Metric = "typing_std_ms"
	TypingBackspace     Metric = "typing_backspace_ratio"
	TypingFragmentation Metric = "typing_fragmentation"
	SleepHours          Metric = "sleep_hours"
	SleepQuality        Metric = "sleep_quality"
	ActivityLevel       Metric = "activity_level"
	Mood                Metric = "mood"
	VoiceStrain         Metric = "voice_strain"
)

// Family groups metrics by their submission source, used by the
// confidence estimator to reason about signal coverage.
type Family string

// Signal families.
const (
	FamilyTyping  Family = "typing"
	FamilyCheckin Family = "checkin"
	FamilyVoice   Family = "voice"
)

// trait bundles the per-metric constants used across the engine.
type trait struct {
	weight        float64
	higherIsWorse bool
	priority      int // lower value wins ties in attribution
	label         string
	family        Family
	maxOfDay      bool // reduce multiple same-day records with max instead of mean
}

// Weights favor check-in signals (sleep, mood) over typing-derived ones;
// voice strain sits in between. They sum to 1 but the aggregator
// renormalizes over whatever subset is present, so the sum is not load-bearing.
var traits = map[Metric]trait{
	SleepHours:          {weight: 0.14, higherIsWorse: false, priority: 0, label: "sleep amount", family: FamilyCheckin},
	SleepQuality:        {weight: 0.14, higherIsWorse: false, priority: 1, label: "sleep quality", family: FamilyCheckin},
	Mood:                {weight: 0.18, higherIsWorse: false, priority: 2, label: "mood", family: FamilyCheckin},
	VoiceStrain:         {weight: 0.09, higherIsWorse: true, priority: 3, label: "voice strain", family: FamilyVoice},
	ActivityLevel:       {weight: 0.14, higherIsWorse: false, priority: 4, label: "activity level", family: FamilyCheckin},
	TypingAvgIntervalMS: {weight: 0.11, higherIsWorse: true, priority: 5, label: "typing rhythm", family: FamilyTyping},
	TypingStdMS:         {weight: 0.07, higherIsWorse: true, priority: 6, label: "typing consistency", family: FamilyTyping},
	TypingBackspace:     {weight: 0.07, higherIsWorse: true, priority: 7, label: "typing friction", family: FamilyTyping},
	TypingFragmentation: {weight: 0.06, higherIsWorse: true, priority: 8, label: "focus fragmentation", family: FamilyTyping, maxOfDay: true},
}

// All returns every canonical metric in priority order.
func All() []Metric {
	return []Metric{
		SleepHours,
		SleepQuality,
		Mood,
		VoiceStrain,
		ActivityLevel,
		TypingAvgIntervalMS,
		TypingStdMS,
		TypingBackspace,
		TypingFragmentation,
	}
}

// Valid reports whether m is a known canonical metric.
func (m Metric) Valid() bool {
	_, ok := traits[m]
	return ok
}

// Weight returns the metric's fixed importance weight in risk aggregation.
func (m Metric) Weight() float64 {
	return traits[m].weight
}

// HigherIsWorse reports the metric's unhealthy direction: true when rising
// values indicate risk (typing friction, voice strain), false when falling
// values do (sleep, mood, activity).
func (m Metric) HigherIsWorse() bool {
	return traits[m].higherIsWorse
}

// Priority returns the tie-break rank for driver attribution.
// Lower ranks win: sleep > mood > voice > activity > typing.
func (m Metric) Priority() int {
	t, ok := traits[m]
	if !ok {
		return len(traits)
	}
	return t.priority
}

// Label returns the human-readable name used in insight text and driver chips.
func (m Metric) Label() string {
	t, ok := traits[m]
	if !ok {
		return string(m)
	}
	return t.label
}

// Family returns the submission source family for the metric.
func (m Metric) Family() Family {
	return traits[m].family
}

// Reduce collapses multiple same-day observations into the single value the
// engine scores: the mean of the day's records, except fragmentation which
// keeps the worst session.
func (m Metric) Reduce(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	if traits[m].maxOfDay {
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max, true
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// Weights returns a copy of the full metric weight table, e.g. for config
// overrides or diagnostics.
func Weights() map[Metric]float64 {
	out := make(map[Metric]float64, len(traits))
	for m, t := range traits {
		out[m] = t.weight
	}
	return out
}
