// Package intervention maps driver metrics to human-readable micro-actions.
// The catalog is a stateless lookup supplied by configuration; completion
// flags belong to the persistence collaborator.
package intervention

import (
	"time"

	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
)

// Action is one suggested micro-step with its estimated time cost.
type Action struct {
	Metric        metric.Metric `json:"metric,omitempty"`
	Title         string        `json:"title"`
	EstimatedTime time.Duration `json:"estimated_time"`
}

// maxSuggestions caps how many actions are suggested per day.
const maxSuggestions = 2

// fallback is suggested when no driver maps to an action.
var fallback = Action{
	Title:         "Take a short break when you can.",
	EstimatedTime: 5 * time.Minute,
}

// defaultCatalog maps each metric to its micro-action.
var defaultCatalog = map[metric.Metric]Action{
	metric.SleepHours:          {Metric: metric.SleepHours, Title: "Pick one night for a hard cutoff, 30 minutes earlier.", EstimatedTime: 2 * time.Minute},
	metric.SleepQuality:        {Metric: metric.SleepQuality, Title: "Wind down 20 minutes before bed. No screens.", EstimatedTime: 20 * time.Minute},
	metric.ActivityLevel:       {Metric: metric.ActivityLevel, Title: "5-minute walk around the block.", EstimatedTime: 5 * time.Minute},
	metric.Mood:                {Metric: metric.Mood, Title: "3-minute brain dump: write down what's on your mind.", EstimatedTime: 3 * time.Minute},
	metric.TypingAvgIntervalMS: {Metric: metric.TypingAvgIntervalMS, Title: "60-second breathing reset: inhale 4, hold 4, exhale 4.", EstimatedTime: time.Minute},
	metric.TypingStdMS:         {Metric: metric.TypingStdMS, Title: "60-second breathing reset: inhale 4, hold 4, exhale 4.", EstimatedTime: time.Minute},
	metric.TypingBackspace:     {Metric: metric.TypingBackspace, Title: "60-second breathing reset: inhale 4, hold 4, exhale 4.", EstimatedTime: time.Minute},
	metric.TypingFragmentation: {Metric: metric.TypingFragmentation, Title: "Do one thing at a time. Prioritize what matters most.", EstimatedTime: 2 * time.Minute},
	metric.VoiceStrain:         {Metric: metric.VoiceStrain, Title: "Take a brief vocal rest or drink water.", EstimatedTime: 3 * time.Minute},
}

// Catalog resolves drivers to suggested actions.
type Catalog struct {
	actions map[metric.Metric]Action
}

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithOverrides replaces individual catalog entries from configuration.
func WithOverrides(overrides map[metric.Metric]Action) Option {
	return func(c *Catalog) {
		for m, a := range overrides {
			if !m.Valid() || a.Title == "" {
				continue
			}
			a.Metric = m
			c.actions[m] = a
		}
	}
}

// NewCatalog builds a Catalog with the built-in actions.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{actions: make(map[metric.Metric]Action, len(defaultCatalog))}
	for m, a := range defaultCatalog {
		c.actions[m] = a
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Suggest returns 1-2 unique actions for the day's top drivers, falling back
// to a generic break when no driver maps to anything.
func (c *Catalog) Suggest(drivers []model.DriverContribution) []Action {
	seen := make(map[string]bool)
	var out []Action
	for _, d := range drivers {
		a, ok := c.actions[d.Metric]
		if !ok || seen[a.Title] {
			continue
		}
		seen[a.Title] = true
		out = append(out, a)
		if len(out) == maxSuggestions {
			return out
		}
	}
	if len(out) == 0 {
		out = append(out, fallback)
	}
	return out
}
