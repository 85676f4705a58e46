package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sentrahq/sentra/internal/adapters/http/api"
	"github.com/sentrahq/sentra/internal/adapters/repository"
	"github.com/sentrahq/sentra/internal/app"
	"github.com/sentrahq/sentra/internal/config"
	"github.com/sentrahq/sentra/internal/domain/dedupe"
	"github.com/sentrahq/sentra/internal/domain/intervention"
	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/org"
	"github.com/sentrahq/sentra/internal/domain/risk"
	"github.com/sentrahq/sentra/internal/domain/trend"
	"github.com/sentrahq/sentra/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scoring HTTP service",
	RunE: func(c *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	// The registry carries only the service's own instruments.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	engine := app.New(store, engineOptions(cfg, log)...)

	mux := http.NewServeMux()
	apiServer := api.NewServer(engine, engine)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openStore selects the repository backing: a sqlite file, or the in-memory
// store when db_path is empty.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.DBPath == "" {
		return repository.NewMemoryStore(), func() {}, nil
	}
	s, err := repository.NewSQLiteStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

// engineOptions maps process configuration onto engine collaborators.
func engineOptions(cfg *config.Config, log logger.Logger) []app.Option {
	weights := make(map[metric.Metric]float64, len(cfg.MetricWeights))
	for name, w := range cfg.MetricWeights {
		weights[metric.Metric(name)] = w
	}
	overrides := make(map[metric.Metric]intervention.Action, len(cfg.Interventions))
	for name, ic := range cfg.Interventions {
		m := metric.Metric(name)
		overrides[m] = intervention.Action{
			Metric:        m,
			Title:         ic.Title,
			EstimatedTime: time.Duration(ic.EstimatedTimeMin) * time.Minute,
		}
	}
	return []app.Option{
		app.WithLogger(log),
		app.WithBaselineWindow(cfg.BaselineWindowDays),
		app.WithTrendDays(cfg.TrendDays),
		app.WithMaxTrendDays(cfg.MaxTrendDays),
		app.WithRecentSignalDays(cfg.RecentSignalDays),
		app.WithAggregator(risk.NewAggregator(
			risk.WithWeights(weights),
			risk.WithTransform(cfg.ScoreAtBaseline, cfg.PointsPerRiskUnit),
		)),
		app.WithClassifier(trend.NewClassifier(trend.WithSlopes(cfg.SlowSlope, cfg.RapidSlope))),
		app.WithOrgAggregator(org.NewAggregator(org.WithStrainThresholds(cfg.OrgStrainWatchHighFrac, cfg.OrgStrainRisingFrac))),
		app.WithCatalog(intervention.NewCatalog(intervention.WithOverrides(overrides))),
		app.WithDeduper(dedupe.New(dedupe.WithMaxSize(cfg.DedupeSize))),
	}
}
