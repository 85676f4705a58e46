package baseline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/pkg/metrics"
)

// Store is the persistence collaborator for baselines. Load returns nil when
// no baseline exists yet. Implementations may block; they must not retry.
type Store interface {
	Load(ctx context.Context, userID string, m metric.Metric) (*Baseline, error)
	Save(ctx context.Context, userID string, m metric.Metric, b *Baseline) error
}

// Default manager configuration constants.
const (
	defaultWindowDays = 7
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithWindowDays sets the number of distinct observed days that define and
// then freeze a baseline.
func WithWindowDays(days int) Option {
	return func(m *Manager) {
		if days >= 2 {
			m.windowDays = days
		}
	}
}

// Manager implements the baseline store contract: lazy init on first
// observation, incremental folds while unlocked, freeze at the window size.
// Observe is a read-modify-write; the Manager serializes it per
// (user, metric) so concurrent same-day submissions cannot lose updates.
type Manager struct {
	store      Store
	windowDays int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a Manager over the given persistence collaborator.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		windowDays: defaultWindowDays,
		locks:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WindowDays returns the configured baseline window size.
func (m *Manager) WindowDays() int {
	return m.windowDays
}

// keyLock returns the mutex guarding one (user, metric) pair.
func (m *Manager) keyLock(userID string, mt metric.Metric) *sync.Mutex {
	key := userID + "\x00" + string(mt)
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

// GetOrInit loads the user's baseline for a metric, creating an empty one
// lazily on first use. A fresh baseline has SampleCount 0 and must be treated
// as "unknown" by the deviation calculator.
func (m *Manager) GetOrInit(ctx context.Context, userID string, mt metric.Metric) (*Baseline, error) {
	b, err := m.store.Load(ctx, userID, mt)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	if b == nil {
		b = &Baseline{}
	}
	return b, nil
}

// Observe folds one day's reduced value into the user's baseline for the
// metric and persists the result. Locked baselines are returned unchanged,
// as is a day that was already folded.
func (m *Manager) Observe(ctx context.Context, userID string, mt metric.Metric, value float64, day time.Time) (*Baseline, error) {
	l := m.keyLock(userID, mt)
	l.Lock()
	defer l.Unlock()

	b, err := m.GetOrInit(ctx, userID, mt)
	if err != nil {
		return nil, err
	}

	folded, lockedNow := b.Fold(day, value, m.windowDays)
	if !folded {
		return b, nil
	}

	if err := m.store.Save(ctx, userID, mt, b); err != nil {
		return nil, fmt.Errorf("save baseline: %w", err)
	}
	metrics.RecordBaselineObserve()
	if lockedNow {
		metrics.RecordBaselineLocked()
	}
	return b, nil
}
