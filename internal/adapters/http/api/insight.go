// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/sentrahq/sentra/internal/app"
)

// InsightHandler handles plain-language insight requests.
type InsightHandler struct {
	deps Dependencies
}

// NewInsightHandler creates a new insight handler.
func NewInsightHandler(deps Dependencies) *InsightHandler {
	return &InsightHandler{deps: deps}
}

type insightAction struct {
	Title            string `json:"title"`
	EstimatedTimeMin int    `json:"estimated_time_min"`
}

type insightResponse struct {
	Text    string          `json:"text"`
	Actions []insightAction `json:"actions"`
}

// HandleGetInsight handles GET /api/insight requests.
func (h *InsightHandler) HandleGetInsight(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_insight"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}
	user, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing_user", NewKind(op, ErrMissingUser))
		return
	}

	text, actions, err := h.deps.Insight(r.Context(), user)
	if errors.Is(err, app.ErrInsufficientData) {
		writeError(w, http.StatusNotFound, "no_score", NewKind(op, ErrNoScore))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	resp := insightResponse{Text: text, Actions: make([]insightAction, 0, len(actions))}
	for _, a := range actions {
		resp.Actions = append(resp.Actions, insightAction{
			Title:            a.Title,
			EstimatedTimeMin: int(a.EstimatedTime / time.Minute),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
