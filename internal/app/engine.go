// Package app provides the behavioral drift scoring engine wired onto its
// persistence collaborators.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sentrahq/sentra/internal/adapters/repository"
	"github.com/sentrahq/sentra/internal/domain/attribution"
	"github.com/sentrahq/sentra/internal/domain/baseline"
	"github.com/sentrahq/sentra/internal/domain/confidence"
	"github.com/sentrahq/sentra/internal/domain/dedupe"
	"github.com/sentrahq/sentra/internal/domain/deviation"
	"github.com/sentrahq/sentra/internal/domain/insight"
	"github.com/sentrahq/sentra/internal/domain/intervention"
	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
	"github.com/sentrahq/sentra/internal/domain/normalize"
	"github.com/sentrahq/sentra/internal/domain/org"
	"github.com/sentrahq/sentra/internal/domain/risk"
	"github.com/sentrahq/sentra/internal/domain/trend"
	"github.com/sentrahq/sentra/pkg/logger"
	"github.com/sentrahq/sentra/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultTrendDays        = 7
	defaultRecentSignalDays = 3
	defaultMaxTrendDays     = 90
	projectionDays          = 5
	nanosPerMilli           = 1e6
)

// Engine converts raw per-day signal observations into daily wellbeing
// scores with status, momentum, confidence and driver attribution. Each
// scoring run is a short synchronous computation; the engine performs no
// I/O beyond its injected collaborators.
type Engine struct {
	store     repository.Store
	baselines *baseline.Manager
	deduper   dedupe.Deduper

	agg        *risk.Aggregator
	classifier *trend.Classifier
	catalog    *intervention.Catalog
	orgAgg     *org.Aggregator

	trendDays        int
	recentSignalDays int
	maxTrendDays     int

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBaselineWindow sets the baseline observation window in days.
func WithBaselineWindow(days int) Option {
	return func(e *Engine) {
		if days >= 2 {
			e.baselines = baseline.NewManager(e.store, baseline.WithWindowDays(days))
		}
	}
}

// WithTrendDays sets how many trailing scored days feed the momentum slope.
func WithTrendDays(days int) Option {
	return func(e *Engine) {
		if days >= 3 {
			e.trendDays = days
		}
	}
}

// WithRecentSignalDays sets the recent-coverage window used by the
// confidence estimator.
func WithRecentSignalDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.recentSignalDays = days
		}
	}
}

// WithMaxTrendDays caps the trend query window.
func WithMaxTrendDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.maxTrendDays = days
		}
	}
}

// WithAggregator replaces the risk aggregator, e.g. with configured weights.
func WithAggregator(a *risk.Aggregator) Option {
	return func(e *Engine) {
		if a != nil {
			e.agg = a
		}
	}
}

// WithClassifier replaces the momentum classifier.
func WithClassifier(c *trend.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithCatalog replaces the intervention catalog.
func WithCatalog(c *intervention.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithOrgAggregator replaces the org rollup aggregator.
func WithOrgAggregator(a *org.Aggregator) Option {
	return func(e *Engine) {
		if a != nil {
			e.orgAgg = a
		}
	}
}

// WithDeduper replaces the submission idempotency tracker.
func WithDeduper(d dedupe.Deduper) Option {
	return func(e *Engine) {
		if d != nil {
			e.deduper = d
		}
	}
}

// WithClock overrides the engine's notion of now, for tests and seeding.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Engine over the given store.
func New(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		store:            store,
		baselines:        baseline.NewManager(store),
		deduper:          dedupe.New(),
		agg:              risk.NewAggregator(),
		classifier:       trend.NewClassifier(),
		catalog:          intervention.NewCatalog(),
		orgAgg:           org.NewAggregator(),
		trendDays:        defaultTrendDays,
		recentSignalDays: defaultRecentSignalDays,
		maxTrendDays:     defaultMaxTrendDays,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("engine")
	}
	return e
}

// Today returns the current UTC calendar day.
func (e *Engine) Today() time.Time {
	return model.Day(e.now())
}

// RecordSignal validates one raw submission, appends its canonical records,
// folds baselines and recomputes the day's score. It returns true when the
// submission was a duplicate of an already-seen event id, in which case
// nothing is appended. A *normalize.ValidationError rejects the submission
// without recording anything.
func (e *Engine) RecordSignal(ctx context.Context, userID string, payload any) (duplicate bool, err error) {
	now := e.now()
	today := model.Day(now)

	if id := eventID(payload); id != "" {
		if e.deduper.SeenAndRecord(ctx, userID+"\x00"+id) {
			metrics.RecordSignalDuplicate()
			return true, nil
		}
		defer func() {
			// A failed append must not poison the id for retries.
			if err != nil {
				e.deduper.Unrecord(ctx, userID+"\x00"+id)
			}
		}()
	}

	records, err := normalize.Signals(userID, today, payload, now)
	if err != nil {
		var verr *normalize.ValidationError
		if errors.As(err, &verr) {
			metrics.RecordValidationError(verr.Field)
		}
		return false, err
	}

	for _, rec := range records {
		if err := e.store.Append(ctx, rec); err != nil {
			metrics.RecordStorageError("signal_log")
			return false, fmt.Errorf("append signal: %w", err)
		}
	}
	metrics.RecordSignalAccepted(normalize.Kind(payload))

	// Fold each touched metric's reduced day value into its baseline.
	touched := map[metric.Metric]bool{}
	for _, rec := range records {
		touched[rec.Metric] = true
	}
	for m := range touched {
		value, ok, err := e.dayValue(ctx, userID, m, today)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		if _, err := e.baselines.Observe(ctx, userID, m, value, today); err != nil {
			metrics.RecordStorageError("baseline")
			return false, fmt.Errorf("observe baseline: %w", err)
		}
	}

	// Scoring runs synchronously on every submission. Having no score yet
	// is a normal state, not a failure of the submission.
	if _, err := e.ComputeScore(ctx, userID, today); err != nil && !errors.Is(err, ErrInsufficientData) {
		return false, err
	}
	return false, nil
}

func eventID(payload any) string {
	switch p := payload.(type) {
	case normalize.TypingPayload:
		return p.EventID
	case *normalize.TypingPayload:
		return p.EventID
	case normalize.VoicePayload:
		return p.EventID
	case *normalize.VoicePayload:
		return p.EventID
	default:
		return ""
	}
}

// dayValue reads and reduces one metric's observations for a calendar day.
func (e *Engine) dayValue(ctx context.Context, userID string, m metric.Metric, day time.Time) (float64, bool, error) {
	obs, err := e.store.ReadRange(ctx, userID, m, day, day)
	if err != nil {
		metrics.RecordStorageError("signal_log")
		return 0, false, fmt.Errorf("read signals: %w", err)
	}
	values := make([]float64, 0, len(obs))
	for _, o := range obs {
		values = append(values, o.Value)
	}
	v, ok := m.Reduce(values)
	return v, ok, nil
}

// ComputeScore derives the DailyScore for one user and date from all signals
// up to and including that date. It is idempotent: recomputing with
// unchanged inputs yields an identical result. With zero usable metrics it
// returns ErrInsufficientData, never a defaulted score.
func (e *Engine) ComputeScore(ctx context.Context, userID string, date time.Time) (model.DailyScore, error) {
	started := time.Now()
	day := model.Day(date)

	deviations := map[metric.Metric]float64{}
	for _, m := range metric.All() {
		value, ok, err := e.dayValue(ctx, userID, m, day)
		if err != nil {
			return model.DailyScore{}, err
		}
		if !ok {
			continue
		}
		b, err := e.baselines.GetOrInit(ctx, userID, m)
		if err != nil {
			metrics.RecordStorageError("baseline")
			return model.DailyScore{}, err
		}
		if z, usable := deviation.Score(b, m, value); usable {
			deviations[m] = z
		}
	}

	riskValue, _, ok := e.agg.Aggregate(deviations)
	if !ok {
		metrics.RecordInsufficientData()
		return model.DailyScore{}, fmt.Errorf("%w: no usable metrics for %s on %s", ErrInsufficientData, userID, day.Format(time.DateOnly))
	}

	score := e.agg.Wellbeing(riskValue)
	conf, err := e.confidence(ctx, userID, day)
	if err != nil {
		return model.DailyScore{}, err
	}

	label, strength, err := e.momentum(ctx, userID, day, score)
	if err != nil {
		return model.DailyScore{}, err
	}
	// Momentum is hidden below low confidence: it must not be surfaced as
	// actionable off a thin baseline.
	if conf == model.ConfidenceLow {
		label, strength = "", ""
	}

	result := model.DailyScore{
		UserID:           userID,
		Date:             day,
		WellbeingScore:   score,
		Status:           trend.Status(score),
		MomentumLabel:    label,
		MomentumStrength: strength,
		Confidence:       conf,
		Drivers:          attribution.Rank(deviations, e.agg),
	}

	if err := e.store.SaveScore(ctx, result); err != nil {
		metrics.RecordStorageError("score")
		return model.DailyScore{}, fmt.Errorf("save score: %w", err)
	}

	metrics.RecordScoreComputed()
	metrics.ObserveWellbeingScore(score)
	metrics.RecordStatus(string(result.Status))
	if label != "" {
		metrics.RecordMomentum(string(label))
	}
	metrics.ObserveScoringLatency(float64(time.Since(started).Nanoseconds()) / nanosPerMilli)

	e.logger.Debug(ctx, "score computed",
		logger.String("user", userID),
		logger.String("date", day.Format(time.DateOnly)),
		logger.Float64("wellbeing", score),
		logger.String("status", string(result.Status)),
	)
	return result, nil
}

// momentum classifies the slope of the last trendDays scores ending today.
func (e *Engine) momentum(ctx context.Context, userID string, day time.Time, todayScore float64) (model.MomentumLabel, model.MomentumStrength, error) {
	from := day.AddDate(0, 0, -(e.trendDays - 1))
	prior, err := e.store.LoadScoreRange(ctx, userID, from, day.AddDate(0, 0, -1))
	if err != nil {
		metrics.RecordStorageError("score")
		return "", "", fmt.Errorf("load scores: %w", err)
	}
	series := make([]float64, 0, len(prior)+1)
	for _, s := range prior {
		series = append(series, s.WellbeingScore)
	}
	series = append(series, todayScore)
	label, strength := e.classifier.Momentum(series)
	return label, strength, nil
}

// confidence estimates reliability from history depth and signal coverage.
func (e *Engine) confidence(ctx context.Context, userID string, day time.Time) (model.Confidence, error) {
	var epoch time.Time

	moodObs, err := e.store.ReadRange(ctx, userID, metric.Mood, epoch, day)
	if err != nil {
		return "", fmt.Errorf("read signals: %w", err)
	}
	checkinDays := distinctDays(moodObs)

	families := map[metric.Family]bool{}
	if len(moodObs) > 0 {
		families[metric.FamilyCheckin] = true
	}
	recent := false
	recentFrom := day.AddDate(0, 0, -(e.recentSignalDays - 1))
	for _, probe := range []metric.Metric{metric.TypingAvgIntervalMS, metric.VoiceStrain} {
		obs, err := e.store.ReadRange(ctx, userID, probe, epoch, day)
		if err != nil {
			return "", fmt.Errorf("read signals: %w", err)
		}
		if len(obs) == 0 {
			continue
		}
		families[probe.Family()] = true
		if !obs[len(obs)-1].Date.Before(recentFrom) {
			recent = true
		}
	}

	return confidence.Estimate(confidence.Input{
		CheckinDays:         checkinDays,
		WindowDays:          e.baselines.WindowDays(),
		FamiliesEver:        families,
		RecentTypingOrVoice: recent,
	}), nil
}

func distinctDays(obs []repository.DatedValue) int {
	days := map[time.Time]bool{}
	for _, o := range obs {
		days[o.Date] = true
	}
	return len(days)
}

// GetTrend returns the scored window of the last days calendar days ending
// today, computing any missing day that has signals, plus a short linear
// projection from the tail of the series.
func (e *Engine) GetTrend(ctx context.Context, userID string, days int) ([]model.DailyScore, []model.Projection, error) {
	if days < 1 {
		days = 1
	}
	if days > e.maxTrendDays {
		days = e.maxTrendDays
	}
	end := e.Today()
	start := end.AddDate(0, 0, -(days - 1))

	stored, err := e.store.LoadScoreRange(ctx, userID, start, end)
	if err != nil {
		metrics.RecordStorageError("score")
		return nil, nil, fmt.Errorf("load scores: %w", err)
	}
	byDay := make(map[time.Time]model.DailyScore, len(stored))
	for _, s := range stored {
		byDay[model.Day(s.Date)] = s
	}

	// Backfilled days standardize against the baseline as persisted now,
	// not as it stood on that day. Baselines freeze once the window fills,
	// so the backfill stays idempotent; only days inside a still-filling
	// window can read a slightly later reference than they saw live.
	var out []model.DailyScore
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		s, ok := byDay[day]
		if !ok {
			computed, err := e.ComputeScore(ctx, userID, day)
			if errors.Is(err, ErrInsufficientData) {
				continue
			}
			if err != nil {
				return nil, nil, err
			}
			s = computed
		}
		out = append(out, s)
	}

	return out, e.projection(out), nil
}

// projection extrapolates the last up-to-trendDays scores forward.
func (e *Engine) projection(scores []model.DailyScore) []model.Projection {
	if len(scores) < 2 {
		return nil
	}
	tail := scores
	if len(tail) > e.trendDays {
		tail = tail[len(tail)-e.trendDays:]
	}
	values := make([]float64, 0, len(tail))
	for _, s := range tail {
		values = append(values, s.WellbeingScore)
	}
	projected := trend.Project(values, projectionDays)
	lastDay := model.Day(scores[len(scores)-1].Date)

	out := make([]model.Projection, 0, len(projected))
	for i, v := range projected {
		out = append(out, model.Projection{
			Date:           lastDay.AddDate(0, 0, i+1),
			ProjectedScore: v,
		})
	}
	return out
}

// GetOrgSnapshot rolls every active user's latest score into the anonymized
// team view. Users without a score count toward the total but contribute to
// no aggregate.
func (e *Engine) GetOrgSnapshot(ctx context.Context) (model.OrgSnapshot, error) {
	userIDs, err := e.store.ListActiveUserIDs(ctx)
	if err != nil {
		metrics.RecordStorageError("roster")
		return model.OrgSnapshot{}, fmt.Errorf("list users: %w", err)
	}

	latest := make([]model.DailyScore, 0, len(userIDs))
	for _, id := range userIDs {
		s, err := e.store.LoadLatest(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			metrics.RecordStorageError("score")
			return model.OrgSnapshot{}, fmt.Errorf("load latest score: %w", err)
		}
		latest = append(latest, s)
	}
	return e.orgAgg.Summarize(len(userIDs), latest), nil
}

// Insight returns the day's templated awareness text and suggested
// micro-actions, derived from the latest score's drivers.
func (e *Engine) Insight(ctx context.Context, userID string) (string, []intervention.Action, error) {
	s, err := e.latestOrToday(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	return insight.Text(s.Drivers, model.Day(s.Date)), e.catalog.Suggest(s.Drivers), nil
}

// InterventionStatus is one suggested action with its completion flag.
type InterventionStatus struct {
	ID            string        `json:"intervention_id"`
	Title         string        `json:"title"`
	EstimatedTime time.Duration `json:"estimated_time"`
	Completed     bool          `json:"completed"`
}

// Interventions returns today's suggested actions with completion flags.
func (e *Engine) Interventions(ctx context.Context, userID string) ([]InterventionStatus, error) {
	s, err := e.latestOrToday(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed, err := e.store.Completions(ctx, userID, e.Today())
	if err != nil {
		metrics.RecordStorageError("intervention")
		return nil, fmt.Errorf("read completions: %w", err)
	}

	actions := e.catalog.Suggest(s.Drivers)
	out := make([]InterventionStatus, 0, len(actions))
	for _, a := range actions {
		id := string(a.Metric)
		if id == "" {
			id = "general"
		}
		out = append(out, InterventionStatus{
			ID:            id,
			Title:         a.Title,
			EstimatedTime: a.EstimatedTime,
			Completed:     completed[id],
		})
	}
	return out, nil
}

// CompleteIntervention flags one suggested action as done for today.
func (e *Engine) CompleteIntervention(ctx context.Context, userID, interventionID string) error {
	if err := e.store.MarkCompleted(ctx, userID, e.Today(), interventionID); err != nil {
		metrics.RecordStorageError("intervention")
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// latestOrToday prefers today's (re)computed score and falls back to the
// most recent stored one.
func (e *Engine) latestOrToday(ctx context.Context, userID string) (model.DailyScore, error) {
	s, err := e.ComputeScore(ctx, userID, e.Today())
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrInsufficientData) {
		return model.DailyScore{}, err
	}
	s, lerr := e.store.LoadLatest(ctx, userID)
	if errors.Is(lerr, repository.ErrNotFound) {
		return model.DailyScore{}, err // keep the insufficient-data error
	}
	if lerr != nil {
		metrics.RecordStorageError("score")
		return model.DailyScore{}, fmt.Errorf("load latest score: %w", lerr)
	}
	return s, nil
}

// Stats returns service statistics for the /stats endpoint.
func (e *Engine) Stats(ctx context.Context) map[string]any {
	stats := map[string]any{
		"trend_days":         e.trendDays,
		"baseline_window":    e.baselines.WindowDays(),
		"recent_signal_days": e.recentSignalDays,
		"dedupe_entries":     e.deduper.Size(),
	}
	if ids, err := e.store.ListActiveUserIDs(ctx); err == nil {
		stats["active_users"] = len(ids)
	}
	return stats
}
