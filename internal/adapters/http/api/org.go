// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// OrgHandler handles the anonymized team rollup.
type OrgHandler struct {
	deps Dependencies
}

// NewOrgHandler creates a new org handler.
func NewOrgHandler(deps Dependencies) *OrgHandler {
	return &OrgHandler{deps: deps}
}

// HandleGetSummary handles GET /api/org/summary requests.
func (h *OrgHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_org_summary"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}

	snapshot, err := h.deps.GetOrgSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
