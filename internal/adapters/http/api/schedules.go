package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/zerodeadline/internal/domain/model"
)

// ScheduleHandler manages schedule items.
type ScheduleHandler struct {
	deps ScheduleDependencies
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(deps ScheduleDependencies) *ScheduleHandler {
	return &ScheduleHandler{deps: deps}
}

// HandleList handles GET /api/schedules. Items are ordered by deadline;
// each carries the index DELETE expects.
func (h *ScheduleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.deps.Schedules(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleAdd handles POST /api/schedules. Canonical and legacy keys are both
// accepted.
func (h *ScheduleHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var item model.ScheduleItem
	if err := decodeJSON(w, r, &item, false); err != nil {
		fail(w, err)
		return
	}
	stored, err := h.deps.AddSchedule(r.Context(), item)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// HandleDelete handles DELETE /api/schedules/{index}.
func (h *ScheduleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		fail(w, fmt.Errorf("%w: index %q", ErrBadRequest, raw))
		return
	}
	removed, err := h.deps.DeleteSchedule(r.Context(), index)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}
