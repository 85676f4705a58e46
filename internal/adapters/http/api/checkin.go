// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sentrahq/sentra/internal/domain/normalize"
)

// CheckinHandler handles daily self-report submissions.
type CheckinHandler struct {
	deps Dependencies
}

// NewCheckinHandler creates a new checkin handler.
func NewCheckinHandler(deps Dependencies) *CheckinHandler {
	return &CheckinHandler{deps: deps}
}

// HandlePostCheckin handles POST /api/checkin requests.
func (h *CheckinHandler) HandlePostCheckin(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_checkin"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}
	user, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing_user", NewKind(op, ErrMissingUser))
		return
	}
	var req normalize.CheckinPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if _, err := h.deps.RecordSignal(r.Context(), user, req); err != nil {
		var verr *normalize.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "validation_error", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
