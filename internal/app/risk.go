package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/zerodeadline/internal/adapters/calendar"
	"github.com/okian/zerodeadline/internal/adapters/llm"
	"github.com/okian/zerodeadline/internal/domain/combined"
	"github.com/okian/zerodeadline/internal/domain/history"
	"github.com/okian/zerodeadline/internal/domain/model"
	"github.com/okian/zerodeadline/internal/domain/scoring"
	"github.com/okian/zerodeadline/internal/domain/stress"
	"github.com/okian/zerodeadline/pkg/logger"
	"github.com/okian/zerodeadline/pkg/metrics"
)

// Dashboard is one evaluation of the combined risk index together with the
// history it was recorded into.
type Dashboard struct {
	combined.Snapshot
	EvaluatedAt time.Time                `json:"evaluated_at"`
	Previous    int                      `json:"previous"`
	HasPrevious bool                     `json:"has_previous"`
	Delta       int                      `json:"delta"`
	Recorded    bool                     `json:"recorded"`
	Stress      stress.Summary           `json:"stress"`
	History     []model.RiskHistoryEntry `json:"history"`
}

// Dashboard evaluates the current risk and records it into the history.
// A failed history write is logged; the evaluation is still returned.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	snap, _, samples, err := s.evaluate(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Snapshot:    snap,
		EvaluatedAt: s.today(),
		Stress:      stress.Summarize(samples),
	}
	// The previous entry comes from the record itself so concurrent
	// evaluations each see the entry their own write followed.
	out, err := s.history.Record(ctx, snap.Combined)
	if err != nil {
		metrics.RecordErrorByComponent("history", "record")
		s.log().Error(ctx, "failed to record risk history",
			logger.Int("risk", snap.Combined),
			logger.Error(err))
	}
	d.History = s.history.Load(ctx)
	if err != nil {
		out = history.NewOutcome(d.History, false)
	}
	if out.HasPrevious {
		d.Previous, d.HasPrevious = out.Previous.Risk, true
	}
	d.Delta = snap.Combined - d.Previous
	d.Recorded = out.Appended

	metrics.RecordEvaluation(snap.Basic.Score, snap.Schedule, snap.Combined, snap.AvgStress)
	metrics.RecordHistoryAppend(out.Appended)
	metrics.UpdateHistorySize(len(d.History))
	for _, part := range snap.Degraded {
		name, _, _ := strings.Cut(part, ":")
		metrics.RecordDegraded(name)
		s.log().Warn(ctx, "risk evaluation degraded", logger.String("detail", part))
	}
	return d, nil
}

// History returns the recorded risk history, oldest first.
func (s *Service) History(ctx context.Context) []model.RiskHistoryEntry {
	return s.history.Load(ctx)
}

func (s *Service) evaluate(ctx context.Context) (combined.Snapshot, []model.ScheduleItem, []model.StressSample, error) {
	items, err := s.schedules.List(ctx)
	if err != nil {
		return combined.Snapshot{}, nil, nil, fmt.Errorf("list schedules: %w", err)
	}
	samples := s.loadSamples(ctx)
	metrics.UpdateSchedulesTotal(len(items))

	snap := s.aggregator.Evaluate(combined.Inputs{
		Schedules: items,
		Samples:   samples,
		Today:     s.today(),
	})
	return snap, items, samples, nil
}

// loadSamples reads the stress log with times in the configured zone, so
// day, week and month buckets follow the same calendar as "today".
func (s *Service) loadSamples(ctx context.Context) []model.StressSample {
	samples := s.stress.Load(ctx)
	for i := range samples {
		samples[i].Timestamp = samples[i].Timestamp.In(s.location)
	}
	return samples
}

// ScheduleView is a stored schedule item with its store index and the days
// left until its deadline.
type ScheduleView struct {
	Index    int                `json:"index"`
	Item     model.ScheduleItem `json:"item"`
	DaysLeft int                `json:"days_left"`
	Overdue  bool               `json:"overdue"`
}

// Schedules lists the stored items ordered by deadline. Items without a
// readable deadline come last. Index refers to the stored order and is what
// DeleteSchedule expects.
func (s *Service) Schedules(ctx context.Context) ([]ScheduleView, error) {
	items, err := s.schedules.List(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()
	views := make([]ScheduleView, len(items))
	for i, it := range items {
		views[i] = ScheduleView{
			Index:    i,
			Item:     it,
			DaysLeft: scoring.DaysToDeadline(it, today),
			Overdue:  isOverdue(it, today),
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].DaysLeft < views[j].DaysLeft
	})
	return views, nil
}

func isOverdue(it model.ScheduleItem, today time.Time) bool {
	d, err := time.Parse(model.DeadlineLayout, it.Deadline)
	if err != nil {
		return false
	}
	y, m, dd := today.Date()
	return d.Before(time.Date(y, m, dd, 0, 0, 0, 0, time.UTC))
}

// AddSchedule validates and stores a new item. The deadline must be empty
// or a YYYY-MM-DD date; a present importance must be positive.
func (s *Service) AddSchedule(ctx context.Context, item model.ScheduleItem) (model.ScheduleItem, error) {
	item.Title = strings.TrimSpace(item.Title)
	item.Deadline = strings.TrimSpace(item.Deadline)
	if item.Deadline != "" {
		if _, err := time.Parse(model.DeadlineLayout, item.Deadline); err != nil {
			return model.ScheduleItem{}, fmt.Errorf("%w: deadline %q is not YYYY-MM-DD", ErrInvalidInput, item.Deadline)
		}
	}
	if v, ok := item.Importance.Value(); ok && v < 1 {
		return model.ScheduleItem{}, fmt.Errorf("%w: importance must be at least 1", ErrInvalidInput)
	}

	stored, err := s.schedules.Add(ctx, item)
	if err != nil {
		return model.ScheduleItem{}, err
	}
	s.log().Info(ctx, "schedule added",
		logger.String("title", stored.Title),
		logger.String("deadline", stored.Deadline))
	return stored, nil
}

// DeleteSchedule removes the item at the stored index.
func (s *Service) DeleteSchedule(ctx context.Context, index int) (model.ScheduleItem, error) {
	removed, err := s.schedules.Delete(ctx, index)
	if err != nil {
		return model.ScheduleItem{}, err
	}
	s.log().Info(ctx, "schedule deleted",
		logger.Int("index", index),
		logger.String("title", removed.Title))
	return removed, nil
}

// RecordStress stores a stress sample. Samples without an id get a fresh
// one; a sample whose id was already recorded is not stored again and
// duplicate is true.
func (s *Service) RecordStress(ctx context.Context, sample model.StressSample) (stored model.StressSample, duplicate bool, err error) {
	if !sample.Valid() {
		return model.StressSample{}, false, fmt.Errorf("%w: stress must be within [%g, %g]", ErrInvalidInput, model.MinStress, model.MaxStress)
	}
	if sample.ID == "" {
		sample.ID = newSampleID()
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.today()
	}

	if s.deduper.SeenAndRecord(ctx, sample.ID) {
		metrics.RecordStressSample(true)
		s.log().Debug(ctx, "duplicate stress sample ignored", logger.String("id", sample.ID))
		return sample, true, nil
	}

	stored, err = s.stress.Append(ctx, sample)
	if err != nil {
		s.deduper.Unrecord(ctx, sample.ID)
		metrics.RecordErrorByComponent("stress", "append")
		return model.StressSample{}, false, err
	}
	metrics.RecordStressSample(false)
	return stored, false, nil
}

// TrendReport is a stress trend with its month-over-month comparison.
type TrendReport struct {
	Period         stress.Period     `json:"period"`
	Points         []stress.Point    `json:"points"`
	MonthOverMonth stress.Comparison `json:"month_over_month"`
	Summary        stress.Summary    `json:"summary"`
}

// StressTrend buckets the stress log by period.
func (s *Service) StressTrend(ctx context.Context, period string) (TrendReport, error) {
	p, err := stress.ParsePeriod(period)
	if err != nil {
		return TrendReport{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	samples := s.loadSamples(ctx)
	return TrendReport{
		Period:         p,
		Points:         stress.Trend(samples, p),
		MonthOverMonth: stress.MonthOverMonth(samples, s.today()),
		Summary:        stress.Summarize(samples),
	}, nil
}

// Advice is an improvement plan produced for the current risk.
type Advice struct {
	Briefing string `json:"briefing"`
	Plan     string `json:"plan"`
}

// Advise asks the advisor for an improvement plan. The evaluation is not
// recorded into the history.
func (s *Service) Advise(ctx context.Context, userContext string) (Advice, error) {
	snap, _, samples, err := s.evaluate(ctx)
	if err != nil {
		return Advice{}, err
	}
	briefing := Briefing(snap)
	plan, err := s.advisor.ImprovementPlan(ctx, briefing, stress.Summarize(samples), userContext)
	if err != nil {
		s.log().Error(ctx, "improvement plan failed", logger.Error(err))
		return Advice{Briefing: briefing}, err
	}
	return Advice{Briefing: briefing, Plan: plan}, nil
}

// Chat answers a question with the current risk as context. On failure the
// returned conversation ends with the question and llm.Apology.
func (s *Service) Chat(ctx context.Context, conv llm.Conversation, question string) (llm.Conversation, error) {
	if strings.TrimSpace(question) == "" {
		return conv, llm.ErrEmptyQuestion
	}
	snap, _, _, err := s.evaluate(ctx)
	if err != nil {
		s.log().Error(ctx, "chat evaluation failed", logger.Error(err))
		return conv.Unanswered(strings.TrimSpace(question)), err
	}
	out, err := s.advisor.Chat(ctx, conv, Briefing(snap), question)
	if err != nil {
		s.log().Warn(ctx, "chat answer failed", logger.Error(err))
	}
	return out, err
}

// CalendarEvents lists upcoming events, or calendar.ErrNotConfigured.
func (s *Service) CalendarEvents(ctx context.Context) ([]calendar.Event, error) {
	if s.calendar == nil {
		return nil, calendar.ErrNotConfigured
	}
	return s.calendar.FetchEvents(ctx)
}

// Briefing renders a snapshot as the text handed to the advisor.
func Briefing(snap combined.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Combined risk index: %d/100 (%s). %s\n", snap.Combined, snap.Severity.Name, snap.Severity.Briefing)
	fmt.Fprintf(&b, "Basic risk: %d (%s). %s\n", snap.Basic.Score, snap.Basic.Tier, snap.Basic.Advice)
	fmt.Fprintf(&b, "Schedule risk: %d.\n", snap.Schedule)
	if snap.HasStress {
		fmt.Fprintf(&b, "Average recent stress: %.2f/10.", snap.AvgStress)
	} else {
		b.WriteString("No stress records yet.")
	}
	return b.String()
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}
