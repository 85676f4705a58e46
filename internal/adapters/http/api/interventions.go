// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sentrahq/sentra/internal/app"
)

// InterventionsHandler handles micro-action suggestion and completion.
type InterventionsHandler struct {
	deps Dependencies
}

// NewInterventionsHandler creates a new interventions handler.
func NewInterventionsHandler(deps Dependencies) *InterventionsHandler {
	return &InterventionsHandler{deps: deps}
}

type interventionItem struct {
	ID               string `json:"intervention_id"`
	Title            string `json:"title"`
	EstimatedTimeMin int    `json:"estimated_time_min"`
	Completed        bool   `json:"completed"`
}

// HandleGetInterventions handles GET /api/interventions requests.
func (h *InterventionsHandler) HandleGetInterventions(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_interventions"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}
	user, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing_user", NewKind(op, ErrMissingUser))
		return
	}

	statuses, err := h.deps.Interventions(r.Context(), user)
	if errors.Is(err, app.ErrInsufficientData) {
		writeError(w, http.StatusNotFound, "no_score", NewKind(op, ErrNoScore))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	items := make([]interventionItem, 0, len(statuses))
	for _, s := range statuses {
		items = append(items, interventionItem{
			ID:               s.ID,
			Title:            s.Title,
			EstimatedTimeMin: int(s.EstimatedTime / time.Minute),
			Completed:        s.Completed,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type completeRequest struct {
	InterventionID string `json:"intervention_id"`
}

// HandlePostComplete handles POST /api/interventions/complete requests.
func (h *InterventionsHandler) HandlePostComplete(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_intervention_complete"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}
	user, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing_user", NewKind(op, ErrMissingUser))
		return
	}
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.InterventionID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	if err := h.deps.CompleteIntervention(r.Context(), user, req.InterventionID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "completed", Duplicate: false})
}
