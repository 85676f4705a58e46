// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sentrahq/sentra/internal/app"
	"github.com/sentrahq/sentra/internal/domain/intervention"
	"github.com/sentrahq/sentra/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the engine implementation.
type Dependencies interface {
	// RecordSignal ingests one raw submission for the identified user.
	// It reports true when the submission was an already-seen event id.
	RecordSignal(ctx context.Context, userID string, payload any) (duplicate bool, err error)

	// Read operations expose scores, trends and the org rollup.
	Today() time.Time
	ComputeScore(ctx context.Context, userID string, date time.Time) (model.DailyScore, error)
	GetTrend(ctx context.Context, userID string, days int) ([]model.DailyScore, []model.Projection, error)
	GetOrgSnapshot(ctx context.Context) (model.OrgSnapshot, error)
	Insight(ctx context.Context, userID string) (string, []intervention.Action, error)
	Interventions(ctx context.Context, userID string) ([]app.InterventionStatus, error)
	CompleteIntervention(ctx context.Context, userID, interventionID string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	checkinHandler       *CheckinHandler
	signalsHandler       *SignalsHandler
	scoreHandler         *ScoreHandler
	trendHandler         *TrendHandler
	insightHandler       *InsightHandler
	interventionsHandler *InterventionsHandler
	orgHandler           *OrgHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		checkinHandler:       NewCheckinHandler(deps),
		signalsHandler:       NewSignalsHandler(deps),
		scoreHandler:         NewScoreHandler(deps),
		trendHandler:         NewTrendHandler(deps),
		insightHandler:       NewInsightHandler(deps),
		interventionsHandler: NewInterventionsHandler(deps),
		orgHandler:           NewOrgHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/checkin", MetricsMiddleware(s.checkinHandler.HandlePostCheckin, "checkin"))
	mux.HandleFunc("/api/events/typing", MetricsMiddleware(s.signalsHandler.HandlePostTyping, "events_typing"))
	mux.HandleFunc("/api/events/voice", MetricsMiddleware(s.signalsHandler.HandlePostVoice, "events_voice"))
	mux.HandleFunc("/api/score/today", MetricsMiddleware(s.scoreHandler.HandleGetToday, "score_today"))
	mux.HandleFunc("/api/trend", MetricsMiddleware(s.trendHandler.HandleGetTrend, "trend"))
	mux.HandleFunc("/api/insight", MetricsMiddleware(s.insightHandler.HandleGetInsight, "insight"))
	mux.HandleFunc("/api/interventions", MetricsMiddleware(s.interventionsHandler.HandleGetInterventions, "interventions"))
	mux.HandleFunc("/api/interventions/complete", MetricsMiddleware(s.interventionsHandler.HandlePostComplete, "interventions_complete"))
	mux.HandleFunc("/api/org/summary", MetricsMiddleware(s.orgHandler.HandleGetSummary, "org_summary"))
}

// userIDHeader identifies the acting user. Authentication happens upstream;
// the engine trusts the header as resolved identity.
const userIDHeader = "X-User-ID"

func userID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(userIDHeader))
	return id, id != ""
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
