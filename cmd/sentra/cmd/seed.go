package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sentrahq/sentra/internal/app"
	"github.com/sentrahq/sentra/internal/config"
	"github.com/sentrahq/sentra/internal/domain/model"
	"github.com/sentrahq/sentra/internal/domain/normalize"
	"github.com/sentrahq/sentra/pkg/logger"
)

// Seed defaults. The fixed random seed keeps demo data reproducible.
const (
	defaultSeedUsers = 8
	defaultSeedDays  = 14
	seedRandSource   = 42
	driftingEvery    = 4 // every n-th user drifts toward risk
)

var (
	seedUsers int
	seedDays  int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the store with demo users and signals",
	Long: `Seed generates a reproducible demo roster. Most users hover around a
personal baseline; every fourth user drifts toward risk over the final
days, which exercises status downgrades and momentum labels.`,
	RunE: func(c *cobra.Command, args []string) error {
		return seed(c.Context())
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", defaultSeedUsers, "number of demo users")
	seedCmd.Flags().IntVar(&seedDays, "days", defaultSeedDays, "days of history per user")
	rootCmd.AddCommand(seedCmd)
}

func seed(ctx context.Context) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	_ = logger.SetLevelString("warn")

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	// The engine's clock follows the day being replayed so that baselines
	// fold and scores land on historical dates.
	current := time.Now().UTC()
	opts := append(engineOptions(cfg, logger.Get()), app.WithClock(func() time.Time { return current }))
	engine := app.New(store, opts...)

	rng := rand.New(rand.NewSource(seedRandSource))
	start := model.Day(time.Now()).AddDate(0, 0, -(seedDays - 1))

	for u := 0; u < seedUsers; u++ {
		userID := fmt.Sprintf("demo-user-%02d", u+1)
		drifting := (u+1)%driftingEvery == 0

		for d := 0; d < seedDays; d++ {
			current = start.AddDate(0, 0, d).Add(12 * time.Hour)

			if _, err := engine.RecordSignal(ctx, userID, checkinFor(rng, d, seedDays, drifting)); err != nil {
				return fmt.Errorf("seed checkin for %s: %w", userID, err)
			}
			if d%2 == 0 {
				if _, err := engine.RecordSignal(ctx, userID, typingFor(rng, d, seedDays, drifting)); err != nil {
					return fmt.Errorf("seed typing for %s: %w", userID, err)
				}
			}
			if d%3 == 0 {
				if _, err := engine.RecordSignal(ctx, userID, voiceFor(rng, d, seedDays, drifting)); err != nil {
					return fmt.Errorf("seed voice for %s: %w", userID, err)
				}
			}
		}
	}
	current = time.Now().UTC()

	return printSummary(ctx, engine, seedUsers)
}

// checkinFor produces plausible self-reports. Drifting users degrade sleep,
// mood and activity over the back half of the window.
func checkinFor(rng *rand.Rand, day, total int, drifting bool) normalize.CheckinPayload {
	jitter := func(spread float64) float64 { return (rng.Float64() - 0.5) * spread }

	drift := 0.0
	if drifting && day > total/2 {
		drift = float64(day-total/2) / float64(total/2) // 0..1 over the back half
	}

	activity := clampRange(95-55*drift+jitter(30), 0, 180)
	return normalize.CheckinPayload{
		Mood:            clampRange(7.2-3.5*drift+jitter(1.2), 1, 10),
		SleepHours:      clampRange(7.3-2.6*drift+jitter(0.9), 0, 24),
		SleepQuality:    clampRange(4.0-1.6*drift+jitter(0.8), 1, 5),
		ActivityMinutes: &activity,
	}
}

func typingFor(rng *rand.Rand, day, total int, drifting bool) normalize.TypingPayload {
	drift := 0.0
	if drifting && day > total/2 {
		drift = float64(day-total/2) / float64(total/2)
	}
	return normalize.TypingPayload{
		EventID:            fmt.Sprintf("seed-typing-%d-%d", day, rng.Int63()),
		AvgIntervalMS:      180 + 90*drift + rng.Float64()*25,
		StdIntervalMS:      40 + 35*drift + rng.Float64()*10,
		BackspaceRatio:     clampRange(0.08+0.09*drift+rng.Float64()*0.02, 0, 1),
		SessionDurationSec: 1200 + rng.Float64()*900,
		FragmentationCount: int(2 + 6*drift + rng.Float64()*2),
		LateNight:          drifting && day > total*3/4,
	}
}

func voiceFor(rng *rand.Rand, day, total int, drifting bool) normalize.VoicePayload {
	drift := 0.0
	if drifting && day > total/2 {
		drift = float64(day-total/2) / float64(total/2)
	}
	return normalize.VoicePayload{
		EventID:     fmt.Sprintf("seed-voice-%d-%d", day, rng.Int63()),
		StrainScore: clampRange(28+40*drift+rng.Float64()*10, 0, 100),
	}
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func printSummary(ctx context.Context, engine *app.Engine, users int) error {
	bold := color.New(color.Bold)
	statusColors := map[model.Status]*color.Color{
		model.StatusStable: color.New(color.FgGreen),
		model.StatusWatch:  color.New(color.FgYellow),
		model.StatusHigh:   color.New(color.FgRed),
	}

	bold.Printf("Seeded %d users, %d days each\n\n", users, seedDays)

	for u := 0; u < users; u++ {
		userID := fmt.Sprintf("demo-user-%02d", u+1)
		score, err := engine.ComputeScore(ctx, userID, engine.Today())
		if errors.Is(err, app.ErrInsufficientData) {
			fmt.Printf("  %-14s (no score yet)\n", userID)
			continue
		}
		if err != nil {
			return fmt.Errorf("score %s: %w", userID, err)
		}
		c, ok := statusColors[score.Status]
		if !ok {
			c = color.New()
		}
		momentum := string(score.MomentumLabel)
		if momentum == "" {
			momentum = "-"
		}
		fmt.Printf("  %-14s %5.1f  %s  momentum=%s confidence=%s\n",
			userID, score.WellbeingScore, c.Sprint(score.Status), momentum, score.Confidence)
	}

	snapshot, err := engine.GetOrgSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("org snapshot: %w", err)
	}
	fmt.Println()
	bold.Println("Org summary")
	fmt.Printf("  scored %d/%d users, average %.1f, strain %s\n",
		snapshot.ScoredUsers, snapshot.TotalUsers, snapshot.AverageWellbeing, snapshot.StrainTier)
	if snapshot.TopDriver != "" {
		fmt.Printf("  top driver: %s\n", snapshot.TopDriver.Label())
	}
	return nil
}
