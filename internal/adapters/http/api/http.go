// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/zerodeadline/internal/adapters/calendar"
	"github.com/okian/zerodeadline/internal/adapters/llm"
	service "github.com/okian/zerodeadline/internal/app"
	"github.com/okian/zerodeadline/internal/domain/model"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	RiskDependencies
	ScheduleDependencies
	StressDependencies
	AdvisorDependencies
	CalendarDependencies
}

// RiskDependencies evaluate and list the combined risk.
type RiskDependencies interface {
	Dashboard(ctx context.Context) (service.Dashboard, error)
	History(ctx context.Context) []model.RiskHistoryEntry
}

// ScheduleDependencies manage the schedule book.
type ScheduleDependencies interface {
	Schedules(ctx context.Context) ([]service.ScheduleView, error)
	AddSchedule(ctx context.Context, item model.ScheduleItem) (model.ScheduleItem, error)
	DeleteSchedule(ctx context.Context, index int) (model.ScheduleItem, error)
}

// StressDependencies record and summarize stress samples.
type StressDependencies interface {
	RecordStress(ctx context.Context, sample model.StressSample) (model.StressSample, bool, error)
	StressTrend(ctx context.Context, period string) (service.TrendReport, error)
}

// AdvisorDependencies reach the language model.
type AdvisorDependencies interface {
	Advise(ctx context.Context, userContext string) (service.Advice, error)
	Chat(ctx context.Context, conv llm.Conversation, question string) (llm.Conversation, error)
}

// CalendarDependencies list upcoming calendar events.
type CalendarDependencies interface {
	CalendarEvents(ctx context.Context) ([]calendar.Event, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	riskHandler      *RiskHandler
	scheduleHandler  *ScheduleHandler
	stressHandler    *StressHandler
	advisorHandler   *AdvisorHandler
	calendarHandler  *CalendarHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		riskHandler:      NewRiskHandler(deps),
		scheduleHandler:  NewScheduleHandler(deps),
		stressHandler:    NewStressHandler(deps),
		advisorHandler:   NewAdvisorHandler(deps),
		calendarHandler:  NewCalendarHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)

	mux.HandleFunc("GET /api/dashboard", MetricsMiddleware(s.riskHandler.HandleDashboard, "dashboard"))
	mux.HandleFunc("GET /api/history", MetricsMiddleware(s.riskHandler.HandleHistory, "history"))
	mux.HandleFunc("GET /api/schedules", MetricsMiddleware(s.scheduleHandler.HandleList, "schedules"))
	mux.HandleFunc("POST /api/schedules", MetricsMiddleware(s.scheduleHandler.HandleAdd, "schedules"))
	mux.HandleFunc("DELETE /api/schedules/{index}", MetricsMiddleware(s.scheduleHandler.HandleDelete, "schedules"))
	mux.HandleFunc("POST /api/stress", MetricsMiddleware(s.stressHandler.HandlePostSample, "stress"))
	mux.HandleFunc("GET /api/stress/trend", MetricsMiddleware(s.stressHandler.HandleTrend, "stress_trend"))
	mux.HandleFunc("POST /api/advice", MetricsMiddleware(s.advisorHandler.HandleAdvice, "advice"))
	mux.HandleFunc("POST /api/chat", MetricsMiddleware(s.advisorHandler.HandleChat, "chat"))
	mux.HandleFunc("GET /api/calendar", MetricsMiddleware(s.calendarHandler.HandleEvents, "calendar"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a bounded JSON body into v. An empty body is accepted
// when optional is true and leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case optional && errors.Is(err, io.EOF):
		return nil
	default:
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
}
