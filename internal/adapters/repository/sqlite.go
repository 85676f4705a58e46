package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // CGO-free sqlite driver

	"github.com/sentrahq/sentra/internal/domain/baseline"
	"github.com/sentrahq/sentra/internal/domain/metric"
	"github.com/sentrahq/sentra/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS signals (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	metric TEXT NOT NULL,
	value REAL NOT NULL,
	captured_at TEXT NOT NULL,
	late_night INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_signals_user_metric_date ON signals(user_id, metric, date);
CREATE TABLE IF NOT EXISTS baselines (
	user_id TEXT NOT NULL,
	metric TEXT NOT NULL,
	mean REAL NOT NULL,
	m2 REAL NOT NULL,
	sample_count INTEGER NOT NULL,
	window_start TEXT,
	window_end TEXT,
	locked INTEGER NOT NULL,
	folded_days TEXT NOT NULL,
	PRIMARY KEY (user_id, metric)
);
CREATE TABLE IF NOT EXISTS scores (
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	wellbeing_score REAL NOT NULL,
	status TEXT NOT NULL,
	momentum_label TEXT NOT NULL,
	momentum_strength TEXT NOT NULL,
	confidence TEXT NOT NULL,
	drivers TEXT NOT NULL,
	PRIMARY KEY (user_id, date)
);
CREATE TABLE IF NOT EXISTS intervention_completions (
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	intervention_id TEXT NOT NULL,
	PRIMARY KEY (user_id, date, intervention_id)
);
`

// SQLiteStore implements Store on a sqlite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer: sqlite serializes writes anyway, and this sidesteps
	// SQLITE_BUSY under concurrent submissions.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append writes one immutable record and registers its user.
func (s *SQLiteStore) Append(ctx context.Context, rec model.SignalRecord) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id) VALUES (?)`, rec.UserID); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	lateNight := 0
	if rec.LateNight {
		lateNight = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signals (id, user_id, date, metric, value, captured_at, late_night) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, day(rec.Date), string(rec.Metric), rec.Value,
		rec.CapturedAt.UTC().Format(time.RFC3339Nano), lateNight)
	if err != nil {
		return fmt.Errorf("append signal: %w", err)
	}
	return nil
}

// ReadRange returns observations for one user and metric within [from, to].
func (s *SQLiteStore) ReadRange(ctx context.Context, userID string, m metric.Metric, from, to time.Time) ([]DatedValue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, value FROM signals
		 WHERE user_id = ? AND metric = ? AND date >= ? AND date <= ?
		 ORDER BY date, captured_at`,
		userID, string(m), day(from), day(to))
	if err != nil {
		return nil, fmt.Errorf("read signals: %w", err)
	}
	defer rows.Close()

	var out []DatedValue
	for rows.Next() {
		var d string
		var v DatedValue
		if err := rows.Scan(&d, &v.Value); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		if v.Date, err = parseDay(d); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read signals: %w", err)
	}
	return out, nil
}

// Load returns the stored baseline or nil when absent.
func (s *SQLiteStore) Load(ctx context.Context, userID string, m metric.Metric) (*baseline.Baseline, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT mean, m2, sample_count, window_start, window_end, locked, folded_days
		 FROM baselines WHERE user_id = ? AND metric = ?`,
		userID, string(m))

	var b baseline.Baseline
	var start, end, folded string
	var locked int
	err := row.Scan(&b.Mean, &b.M2, &b.SampleCount, &start, &end, &locked, &folded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	b.Locked = locked != 0
	if b.WindowStart, err = parseDayOrZero(start); err != nil {
		return nil, err
	}
	if b.WindowEnd, err = parseDayOrZero(end); err != nil {
		return nil, err
	}
	for _, d := range strings.Split(folded, ",") {
		if d == "" {
			continue
		}
		fd, err := parseDay(d)
		if err != nil {
			return nil, err
		}
		b.FoldedDays = append(b.FoldedDays, fd)
	}
	return &b, nil
}

// Save upserts a baseline.
func (s *SQLiteStore) Save(ctx context.Context, userID string, m metric.Metric, b *baseline.Baseline) error {
	days := make([]string, 0, len(b.FoldedDays))
	for _, d := range b.FoldedDays {
		days = append(days, day(d))
	}
	locked := 0
	if b.Locked {
		locked = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO baselines (user_id, metric, mean, m2, sample_count, window_start, window_end, locked, folded_days)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, metric) DO UPDATE SET
		   mean = excluded.mean, m2 = excluded.m2, sample_count = excluded.sample_count,
		   window_start = excluded.window_start, window_end = excluded.window_end,
		   locked = excluded.locked, folded_days = excluded.folded_days`,
		userID, string(m), b.Mean, b.M2, b.SampleCount,
		dayOrEmpty(b.WindowStart), dayOrEmpty(b.WindowEnd), locked, strings.Join(days, ","))
	if err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	return nil
}

// SaveScore upserts the score for its user and date.
func (s *SQLiteStore) SaveScore(ctx context.Context, sc model.DailyScore) error {
	drivers, err := json.Marshal(sc.Drivers)
	if err != nil {
		return fmt.Errorf("marshal drivers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (user_id, date, wellbeing_score, status, momentum_label, momentum_strength, confidence, drivers)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, date) DO UPDATE SET
		   wellbeing_score = excluded.wellbeing_score, status = excluded.status,
		   momentum_label = excluded.momentum_label, momentum_strength = excluded.momentum_strength,
		   confidence = excluded.confidence, drivers = excluded.drivers`,
		sc.UserID, day(sc.Date), sc.WellbeingScore, string(sc.Status),
		string(sc.MomentumLabel), string(sc.MomentumStrength), string(sc.Confidence), string(drivers))
	if err != nil {
		return fmt.Errorf("save score: %w", err)
	}
	return nil
}

// LoadLatest returns the most recent score for a user, or ErrNotFound.
func (s *SQLiteStore) LoadLatest(ctx context.Context, userID string) (model.DailyScore, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, date, wellbeing_score, status, momentum_label, momentum_strength, confidence, drivers
		 FROM scores WHERE user_id = ? ORDER BY date DESC LIMIT 1`, userID)
	sc, err := scanScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DailyScore{}, ErrNotFound
	}
	return sc, err
}

// LoadScoreRange returns scores within [from, to] ordered by date.
func (s *SQLiteStore) LoadScoreRange(ctx context.Context, userID string, from, to time.Time) ([]model.DailyScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, date, wellbeing_score, status, momentum_label, momentum_strength, confidence, drivers
		 FROM scores WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date`,
		userID, day(from), day(to))
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	defer rows.Close()

	var out []model.DailyScore
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	return out, nil
}

// ListActiveUserIDs returns every registered user.
func (s *SQLiteStore) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// MarkCompleted flags one intervention id as done for the user and day.
func (s *SQLiteStore) MarkCompleted(ctx context.Context, userID string, dayT time.Time, interventionID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO intervention_completions (user_id, date, intervention_id) VALUES (?, ?, ?)`,
		userID, day(dayT), interventionID)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// Completions returns the set of completed intervention ids for the day.
func (s *SQLiteStore) Completions(ctx context.Context, userID string, dayT time.Time) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT intervention_id FROM intervention_completions WHERE user_id = ? AND date = ?`,
		userID, day(dayT))
	if err != nil {
		return nil, fmt.Errorf("read completions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read completions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScore(row rowScanner) (model.DailyScore, error) {
	var sc model.DailyScore
	var d, status, label, strength, conf, drivers string
	if err := row.Scan(&sc.UserID, &d, &sc.WellbeingScore, &status, &label, &strength, &conf, &drivers); err != nil {
		return model.DailyScore{}, err
	}
	var err error
	if sc.Date, err = parseDay(d); err != nil {
		return model.DailyScore{}, err
	}
	sc.Status = model.Status(status)
	sc.MomentumLabel = model.MomentumLabel(label)
	sc.MomentumStrength = model.MomentumStrength(strength)
	sc.Confidence = model.Confidence(conf)
	if drivers != "" && drivers != "null" {
		if err := json.Unmarshal([]byte(drivers), &sc.Drivers); err != nil {
			return model.DailyScore{}, fmt.Errorf("unmarshal drivers: %w", err)
		}
	}
	return sc, nil
}

func day(t time.Time) string {
	return model.Day(t).Format(time.DateOnly)
}

func dayOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return day(t)
}

func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func parseDayOrZero(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return parseDay(s)
}
