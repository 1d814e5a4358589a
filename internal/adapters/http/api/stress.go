package api

import (
	"net/http"

	"github.com/okian/zerodeadline/internal/domain/model"
)

// StressHandler records stress samples and reports trends.
type StressHandler struct {
	deps StressDependencies
}

// NewStressHandler creates a new stress handler.
func NewStressHandler(deps StressDependencies) *StressHandler {
	return &StressHandler{deps: deps}
}

type ackResponse struct {
	Status    string             `json:"status"`
	Duplicate bool               `json:"duplicate"`
	Sample    model.StressSample `json:"sample"`
}

// HandlePostSample handles POST /api/stress. Resubmitting a sample with an
// id that was already recorded is acknowledged without storing it again.
func (h *StressHandler) HandlePostSample(w http.ResponseWriter, r *http.Request) {
	var sample model.StressSample
	if err := decodeJSON(w, r, &sample, false); err != nil {
		fail(w, err)
		return
	}
	stored, dup, err := h.deps.RecordStress(r.Context(), sample)
	if err != nil {
		fail(w, err)
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, Sample: stored})
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "recorded", Sample: stored})
}

// HandleTrend handles GET /api/stress/trend?period=day|week|month. The
// period defaults to day.
func (h *StressHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}
	report, err := h.deps.StressTrend(r.Context(), period)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
