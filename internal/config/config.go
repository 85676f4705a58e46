// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults; Load() layers file and env.
//   - Every tunable of the scoring engine is a named field here, never an
//     inline magic number in the engine itself.
//   - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8090".
	Addr string `koanf:"addr"`

	// DBPath is the sqlite database file. Empty selects the in-memory
	// repository, used by tests and the seed command.
	DBPath string `koanf:"db_path"`

	// BaselineWindowDays is the number of distinct observed days that
	// define and then freeze a personal baseline.
	BaselineWindowDays int `koanf:"baseline_window_days"`

	// TrendDays is how many trailing scored days feed the momentum slope.
	TrendDays int `koanf:"trend_days"`

	// MaxTrendDays caps GET /api/trend?days.
	MaxTrendDays int `koanf:"max_trend_days"`

	// SlowSlope and RapidSlope are the momentum thresholds in score points
	// per day. Rapid must be at least twice Slow.
	SlowSlope  float64 `koanf:"slow_slope"`
	RapidSlope float64 `koanf:"rapid_slope"`

	// ScoreAtBaseline anchors the risk-to-score transform: a
	// baseline-typical day (risk 0) maps to this wellbeing score.
	ScoreAtBaseline float64 `koanf:"score_at_baseline"`

	// PointsPerRiskUnit is the transform slope; with the defaults a risk
	// of 3 reaches a score of 0.
	PointsPerRiskUnit float64 `koanf:"points_per_risk_unit"`

	// MetricWeights overrides individual metric importance weights.
	// Unlisted metrics keep their built-in weight.
	MetricWeights map[string]float64 `koanf:"metric_weights"`

	// RecentSignalDays is the window the confidence estimator checks for a
	// recent typing or voice sample.
	RecentSignalDays int `koanf:"recent_signal_days"`

	// DedupeSize bounds the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// OrgStrainWatchHighFrac and OrgStrainRisingFrac trip the org strain
	// tier to Rising; half of each marks Moderate.
	OrgStrainWatchHighFrac float64 `koanf:"org_strain_watch_high_frac"`
	OrgStrainRisingFrac    float64 `koanf:"org_strain_rising_frac"`

	// Interventions maps metric names to a micro-action title and an
	// estimated time in minutes, overriding the built-in catalog.
	Interventions map[string]InterventionConfig `koanf:"interventions"`
}

// InterventionConfig is one configured micro-action.
type InterventionConfig struct {
	Title            string `koanf:"title"`
	EstimatedTimeMin int    `koanf:"estimated_time_min"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8090",
		DBPath:                 "sentra.db",
		BaselineWindowDays:     7,
		TrendDays:              7,
		MaxTrendDays:           90,
		SlowSlope:              0.8,
		RapidSlope:             2.0,
		ScoreAtBaseline:        82,
		PointsPerRiskUnit:      27.5,
		RecentSignalDays:       3,
		DedupeSize:             50_000,
		OrgStrainWatchHighFrac: 0.30,
		OrgStrainRisingFrac:    0.20,
	}
}
