package api

import (
	"net/http"

	"github.com/okian/zerodeadline/internal/adapters/calendar"
)

// CalendarHandler lists upcoming calendar events.
type CalendarHandler struct {
	deps CalendarDependencies
}

// NewCalendarHandler creates a new calendar handler.
func NewCalendarHandler(deps CalendarDependencies) *CalendarHandler {
	return &CalendarHandler{deps: deps}
}

// HandleEvents handles GET /api/calendar. 503 when no calendar is
// configured, 502 when the fetch fails.
func (h *CalendarHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.CalendarEvents(r.Context())
	if err != nil {
		fail(w, upstream(err))
		return
	}
	if events == nil {
		events = []calendar.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
