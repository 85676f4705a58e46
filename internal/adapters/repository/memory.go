package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sentrahq/sentra/internal/domain/baseline"
	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
)

// MemoryStore implements Store entirely in memory. It backs tests and the
// seed command; the sqlite store carries production data.
type MemoryStore struct {
	mu          sync.RWMutex
	signals     map[string][]model.SignalRecord                // userID -> append order
	baselines   map[string]map[metric.Metric]baseline.Baseline // userID -> metric
	scores      map[string]map[time.Time]model.DailyScore      // userID -> day
	completions map[string]map[string]bool                     // userID+day -> intervention ids
	users       map[string]bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		signals:     make(map[string][]model.SignalRecord),
		baselines:   make(map[string]map[metric.Metric]baseline.Baseline),
		scores:      make(map[string]map[time.Time]model.DailyScore),
		completions: make(map[string]map[string]bool),
		users:       make(map[string]bool),
	}
}

// Append writes one immutable record and registers its user.
func (s *MemoryStore) Append(_ context.Context, rec model.SignalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[rec.UserID] = append(s.signals[rec.UserID], rec)
	s.users[rec.UserID] = true
	return nil
}

// ReadRange returns observations for one user and metric within [from, to].
func (s *MemoryStore) ReadRange(_ context.Context, userID string, m metric.Metric, from, to time.Time) ([]DatedValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to = model.Day(from), model.Day(to)
	var out []DatedValue
	for _, rec := range s.signals[userID] {
		if rec.Metric != m || rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		out = append(out, DatedValue{Date: rec.Date, Value: rec.Value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Load returns the stored baseline or nil when absent.
func (s *MemoryStore) Load(_ context.Context, userID string, m metric.Metric) (*baseline.Baseline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.baselines[userID][m]
	if !ok {
		return nil, nil
	}
	// Copy out so callers never mutate stored state in place.
	cp := b
	cp.FoldedDays = append([]time.Time(nil), b.FoldedDays...)
	return &cp, nil
}

// Save upserts a baseline.
func (s *MemoryStore) Save(_ context.Context, userID string, m metric.Metric, b *baseline.Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byMetric, ok := s.baselines[userID]
	if !ok {
		byMetric = make(map[metric.Metric]baseline.Baseline)
		s.baselines[userID] = byMetric
	}
	cp := *b
	cp.FoldedDays = append([]time.Time(nil), b.FoldedDays...)
	byMetric[m] = cp
	s.users[userID] = true
	return nil
}

// SaveScore upserts the score for its user and date.
func (s *MemoryStore) SaveScore(_ context.Context, sc model.DailyScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDay, ok := s.scores[sc.UserID]
	if !ok {
		byDay = make(map[time.Time]model.DailyScore)
		s.scores[sc.UserID] = byDay
	}
	byDay[model.Day(sc.Date)] = sc
	s.users[sc.UserID] = true
	return nil
}

// LoadLatest returns the most recent score for a user, or ErrNotFound.
func (s *MemoryStore) LoadLatest(_ context.Context, userID string) (model.DailyScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest model.DailyScore
	found := false
	for day, sc := range s.scores[userID] {
		if !found || day.After(latest.Date) {
			latest = sc
			found = true
		}
	}
	if !found {
		return model.DailyScore{}, ErrNotFound
	}
	return latest, nil
}

// LoadScoreRange returns scores within [from, to] ordered by date.
func (s *MemoryStore) LoadScoreRange(_ context.Context, userID string, from, to time.Time) ([]model.DailyScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to = model.Day(from), model.Day(to)
	var out []model.DailyScore
	for day, sc := range s.scores[userID] {
		if day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ListActiveUserIDs returns every user seen by the store, sorted for
// deterministic rollups.
func (s *MemoryStore) ListActiveUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.users))
	for id := range s.users {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// MarkCompleted flags one intervention id as done for the user and day.
func (s *MemoryStore) MarkCompleted(_ context.Context, userID string, day time.Time, interventionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := completionKey(userID, day)
	set, ok := s.completions[key]
	if !ok {
		set = make(map[string]bool)
		s.completions[key] = set
	}
	set[interventionID] = true
	return nil
}

// Completions returns the set of completed intervention ids for the day.
func (s *MemoryStore) Completions(_ context.Context, userID string, day time.Time) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool)
	for id := range s.completions[completionKey(userID, day)] {
		out[id] = true
	}
	return out, nil
}

func completionKey(userID string, day time.Time) string {
	return userID + "\x00" + model.Day(day).Format(time.DateOnly)
}
