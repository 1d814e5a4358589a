package api

import (
	"net/http"

	"github.com/okian/zerodeadline/internal/domain/model"
)

// RiskHandler serves the combined risk index and its history.
type RiskHandler struct {
	deps RiskDependencies
}

// NewRiskHandler creates a new risk handler.
func NewRiskHandler(deps RiskDependencies) *RiskHandler {
	return &RiskHandler{deps: deps}
}

// HandleDashboard handles GET /api/dashboard. Every call evaluates the
// current risk and records it into the history.
func (h *RiskHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.deps.Dashboard(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type historyResponse struct {
	Entries []model.RiskHistoryEntry `json:"entries"`
	Count   int                      `json:"count"`
}

// HandleHistory handles GET /api/history.
func (h *RiskHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	entries := h.deps.History(r.Context())
	if entries == nil {
		entries = []model.RiskHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries, Count: len(entries)})
}
