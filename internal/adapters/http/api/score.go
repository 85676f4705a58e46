// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"

	"github.com/sentrahq/sentra/internal/app"
)

// ScoreHandler handles today's score requests.
type ScoreHandler struct {
	deps Dependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps Dependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleGetToday handles GET /api/score/today requests.
func (h *ScoreHandler) HandleGetToday(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_score_today"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}
	user, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing_user", NewKind(op, ErrMissingUser))
		return
	}

	score, err := h.deps.ComputeScore(r.Context(), user, h.deps.Today())
	if errors.Is(err, app.ErrInsufficientData) {
		writeError(w, http.StatusNotFound, "no_score", NewKind(op, ErrNoScore))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, score)
}
