// Package service composes the risk core with its stores and external
// collaborators and exposes the operations used by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/zerodeadline/internal/adapters/calendar"
	"github.com/okian/zerodeadline/internal/adapters/llm"
	"github.com/okian/zerodeadline/internal/domain/combined"
	"github.com/okian/zerodeadline/internal/domain/dedupe"
	"github.com/okian/zerodeadline/internal/domain/history"
	"github.com/okian/zerodeadline/internal/domain/model"
	"github.com/okian/zerodeadline/pkg/logger"
	"github.com/okian/zerodeadline/pkg/metrics"
)

// ScheduleBook stores schedule items.
type ScheduleBook interface {
	List(ctx context.Context) ([]model.ScheduleItem, error)
	Add(ctx context.Context, item model.ScheduleItem) (model.ScheduleItem, error)
	Delete(ctx context.Context, index int) (model.ScheduleItem, error)
}

// StressLog stores stress samples.
type StressLog interface {
	Load(ctx context.Context) []model.StressSample
	Append(ctx context.Context, sample model.StressSample) (model.StressSample, error)
}

// Service implements the API dependencies for the risk dashboard.
type Service struct {
	mu sync.RWMutex

	// Stores
	schedules ScheduleBook
	stress    StressLog
	history   history.Store

	// Core
	aggregator *combined.Aggregator
	deduper    dedupe.Deduper

	// External collaborators
	advisor  *llm.Advisor
	calendar calendar.Fetcher

	// Configuration
	dedupeSize int
	location   *time.Location
	now        func() time.Time

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithScheduleBook sets the schedule store.
func WithScheduleBook(b ScheduleBook) Option {
	return func(s *Service) { s.schedules = b }
}

// WithStressLog sets the stress sample store.
func WithStressLog(l StressLog) Option {
	return func(s *Service) { s.stress = l }
}

// WithHistory sets the risk history store.
func WithHistory(h history.Store) Option {
	return func(s *Service) { s.history = h }
}

// WithAggregator overrides the scoring pipeline.
func WithAggregator(a *combined.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithAdvisor sets the LLM advisor.
func WithAdvisor(a *llm.Advisor) Option {
	return func(s *Service) {
		if a != nil {
			s.advisor = a
		}
	}
}

// WithCalendar sets the calendar fetcher. Without one, CalendarEvents
// returns calendar.ErrNotConfigured.
func WithCalendar(f calendar.Fetcher) Option {
	return func(s *Service) { s.calendar = f }
}

// WithDedupeSize sets how many stress sample ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLocation sets the zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Stores must be supplied before Start.
func New(opts ...Option) *Service {
	s := &Service{
		aggregator: combined.NewAggregator(),
		advisor:    llm.NewAdvisor(nil),
		dedupeSize: dedupe.DefaultMaxSize,
		location:   time.Local,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.deduper = dedupe.New(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start checks the dependencies and seeds the sample deduper from the log.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	switch {
	case s.schedules == nil:
		return fmt.Errorf("%w: schedule book", ErrMissingDependency)
	case s.stress == nil:
		return fmt.Errorf("%w: stress log", ErrMissingDependency)
	case s.history == nil:
		return fmt.Errorf("%w: history store", ErrMissingDependency)
	}

	s.logger.Info(ctx, "starting risk service...")

	samples := s.stress.Load(ctx)
	for _, sm := range samples {
		s.deduper.Seed(ctx, sm.ID)
	}

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "risk service started",
		logger.String("timezone", s.location.String()),
		logger.Int("stressSamples", len(samples)),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("calendar", s.calendar != nil),
	)
	return nil
}

// Stop marks the service stopped. Stores are owned by the caller.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "risk service stopped")
}

// today is the caller's civil date in the configured zone.
func (s *Service) today() time.Time {
	return s.now().In(s.location)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":    s.started,
		"timezone":   s.location.String(),
		"dedupeSize": s.dedupeSize,
		"calendar":   s.calendar != nil,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	entries := s.history.Load(ctx)
	stats["historyEntries"] = len(entries)
	stats["stressSamples"] = len(s.stress.Load(ctx))
	stats["knownSampleIDs"] = s.deduper.Size()
	stats["uptimeSeconds"] = int(s.now().Sub(s.startedAt).Seconds())
	if items, err := s.schedules.List(ctx); err == nil {
		stats["schedules"] = len(items)
		metrics.UpdateSchedulesTotal(len(items))
	}
	if last, ok := history.Last(entries); ok {
		stats["lastRisk"] = last.Risk
	}
	metrics.UpdateHistorySize(len(entries))
	return stats
}

func newSampleID() string {
	return uuid.NewString()
}
