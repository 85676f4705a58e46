// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sentrahq/sentra/internal/domain/normalize"
)

// SignalsHandler handles passive signal submissions (typing, voice).
type SignalsHandler struct {
	deps Dependencies
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(deps Dependencies) *SignalsHandler {
	return &SignalsHandler{deps: deps}
}

// HandlePostTyping handles POST /api/events/typing requests.
func (h *SignalsHandler) HandlePostTyping(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_typing"
	var req normalize.TypingPayload
	h.post(w, r, op, &req)
}

// HandlePostVoice handles POST /api/events/voice requests.
func (h *SignalsHandler) HandlePostVoice(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_voice"
	var req normalize.VoicePayload
	h.post(w, r, op, &req)
}

func (h *SignalsHandler) post(w http.ResponseWriter, r *http.Request, op string, req any) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}
	user, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing_user", NewKind(op, ErrMissingUser))
		return
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	duplicate, err := h.deps.RecordSignal(r.Context(), user, req)
	if err != nil {
		var verr *normalize.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "validation_error", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
