// Package metrics provides Prometheus metrics for the Sentra scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus instruments for the service.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  prometheus.Registerer

	// Signal intake
	signalsAccepted  *prometheus.CounterVec
	signalsDuplicate prometheus.Counter
	validationErrors *prometheus.CounterVec

	// Scoring
	scoresComputed   prometheus.Counter
	insufficientData prometheus.Counter
	scoringLatency   prometheus.Histogram
	wellbeingScore   prometheus.Histogram
	statusCounts     *prometheus.CounterVec
	baselinesLocked  prometheus.Counter
	baselineObserves prometheus.Counter
	momentumComputed *prometheus.CounterVec

	// Storage
	storageErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go collector noise stays out.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "sentra",
		subsystem: "engine",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.signalsAccepted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signals_accepted_total",
		Help:      "Signal submissions accepted, labeled by payload kind",
	}, []string{"kind"})

	m.signalsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signals_duplicate_total",
		Help:      "Signal submissions acknowledged as duplicates by event id",
	})

	m.validationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_errors_total",
		Help:      "Rejected submissions, labeled by offending field",
	}, []string{"field"})

	m.scoresComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scores_computed_total",
		Help:      "Daily scores computed (including recomputations)",
	})

	m.insufficientData = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scores_insufficient_data_total",
		Help:      "Scoring runs that ended in the no-score-yet state",
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of end-to-end score computation latency",
		Buckets:   m.buckets,
	})

	m.wellbeingScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "wellbeing_score",
		Help:      "Distribution of computed wellbeing scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.statusCounts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "status_total",
		Help:      "Computed scores by status tier",
	}, []string{"status"})

	m.baselinesLocked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "baselines_locked_total",
		Help:      "Baselines that reached their window and froze",
	})

	m.baselineObserves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "baseline_observations_total",
		Help:      "Observations folded into unlocked baselines",
	})

	m.momentumComputed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "momentum_total",
		Help:      "Momentum classifications, labeled by direction",
	}, []string{"label"})

	m.storageErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "storage_errors_total",
		Help:      "Collaborator storage failures, labeled by store",
	}, []string{"store"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration by endpoint, method and status code",
		Buckets:   m.buckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Package-level helpers against the global manager.

// RecordSignalAccepted counts an accepted submission of the given payload kind.
func RecordSignalAccepted(kind string) {
	globalManager.signalsAccepted.WithLabelValues(kind).Inc()
}

// RecordSignalDuplicate counts a submission acknowledged as a duplicate.
func RecordSignalDuplicate() {
	globalManager.signalsDuplicate.Inc()
}

// RecordValidationError counts a rejected submission for the offending field.
func RecordValidationError(field string) {
	globalManager.validationErrors.WithLabelValues(field).Inc()
}

// RecordScoreComputed counts a completed daily score computation.
func RecordScoreComputed() {
	globalManager.scoresComputed.Inc()
}

// RecordInsufficientData counts a scoring run with no usable metrics.
func RecordInsufficientData() {
	globalManager.insufficientData.Inc()
}

// ObserveScoringLatency records end-to-end scoring latency in milliseconds.
func ObserveScoringLatency(latencyMS float64) {
	globalManager.scoringLatency.Observe(latencyMS)
}

// ObserveWellbeingScore records a computed score into the distribution.
func ObserveWellbeingScore(score float64) {
	globalManager.wellbeingScore.Observe(score)
}

// RecordStatus counts a computed score's status tier.
func RecordStatus(status string) {
	globalManager.statusCounts.WithLabelValues(status).Inc()
}

// RecordBaselineLocked counts a baseline freezing at its window size.
func RecordBaselineLocked() {
	globalManager.baselinesLocked.Inc()
}

// RecordBaselineObserve counts an observation folded into an unlocked baseline.
func RecordBaselineObserve() {
	globalManager.baselineObserves.Inc()
}

// RecordMomentum counts a momentum classification.
func RecordMomentum(label string) {
	globalManager.momentumComputed.WithLabelValues(label).Inc()
}

// RecordStorageError counts a collaborator storage failure.
func RecordStorageError(store string) {
	globalManager.storageErrors.WithLabelValues(store).Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMS float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMS)
}

// GetRegistry exposes the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
