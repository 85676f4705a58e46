package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SENTRA_CONFIG is set
//  3. env (prefix SENTRA_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SENTRA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SENTRA_ADDR, SENTRA_BASELINE_WINDOW_DAYS, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("SENTRA_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "sentra_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BaselineWindowDays < 2:
		return fmt.Errorf("%w: baseline_window_days must be at least 2", ErrInvalidConfig)
	case c.TrendDays < 3:
		return fmt.Errorf("%w: trend_days must be at least 3", ErrInvalidConfig)
	case c.SlowSlope <= 0 || c.RapidSlope < 2*c.SlowSlope:
		return fmt.Errorf("%w: rapid_slope must be at least twice slow_slope", ErrInvalidConfig)
	case c.ScoreAtBaseline < 0 || c.ScoreAtBaseline > 100:
		return fmt.Errorf("%w: score_at_baseline must be within [0, 100]", ErrInvalidConfig)
	case c.PointsPerRiskUnit <= 0:
		return fmt.Errorf("%w: points_per_risk_unit must be positive", ErrInvalidConfig)
	}
	for name, w := range c.MetricWeights {
		if w < 0 {
			return fmt.Errorf("%w: metric weight for %s must not be negative", ErrInvalidConfig, name)
		}
	}
	return nil
}
