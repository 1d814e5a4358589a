// Package combined blends the basic score, the schedule score and the mean
// stress level into one risk index and classifies it.
package combined

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/zerodeadline/internal/domain/analysis"
	"github.com/okian/zerodeadline/internal/domain/model"
	"github.com/okian/zerodeadline/internal/domain/scoring"
	"github.com/okian/zerodeadline/internal/domain/stress"
)

// Blend weights. Stress is reported on a 1-10 scale and scaled by
// StressScale before weighting.
const (
	BasicWeight    = 0.5
	ScheduleWeight = 0.3
	StressWeight   = 0.2
	StressScale    = 10.0
	// NeutralStress stands in for a missing stress mean.
	NeutralStress = 5.0
)

// Combine blends the three signals into an index in [0, 100]. A non-finite
// avgStress is replaced by NeutralStress.
func Combine(basic, schedule int, avgStress float64) int {
	if math.IsNaN(avgStress) || math.IsInf(avgStress, 0) {
		avgStress = NeutralStress
	}
	v := min(max(blend(basic, schedule, avgStress), 0), scoring.MaxScore)
	return int(math.RoundToEven(v))
}

func blend(basic, schedule int, avgStress float64) float64 {
	return float64(basic)*BasicWeight + float64(schedule)*ScheduleWeight + avgStress*StressScale*StressWeight
}

// Contributions are the weighted parts of the index, for display.
type Contributions struct {
	Basic    float64 `json:"basic"`
	Schedule float64 `json:"schedule"`
	Stress   float64 `json:"stress"`
}

// Inputs are the raw signals of one evaluation.
type Inputs struct {
	Schedules []model.ScheduleItem
	Samples   []model.StressSample
	Today     time.Time
}

// Snapshot is the outcome of one evaluation.
type Snapshot struct {
	Basic         analysis.Assessment `json:"basic"`
	Schedule      int                 `json:"schedule"`
	AvgStress     float64             `json:"avg_stress"`
	HasStress     bool                `json:"has_stress"`
	Combined      int                 `json:"combined"`
	Severity      Severity            `json:"severity"`
	Contributions Contributions       `json:"contributions"`
	// Degraded lists the sub-computations that failed and fell back.
	Degraded []string `json:"degraded,omitempty"`
}

// Aggregator computes snapshots with a basic analyzer and a schedule policy.
type Aggregator struct {
	analyzer *analysis.Analyzer
	schedule scoring.Policy
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithAnalyzer overrides the basic analyzer.
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(g *Aggregator) {
		if a != nil {
			g.analyzer = a
		}
	}
}

// WithSchedulePolicy overrides the schedule policy. Defaults to
// scoring.Cumulative.
func WithSchedulePolicy(p scoring.Policy) Option {
	return func(g *Aggregator) {
		if p != nil {
			g.schedule = p
		}
	}
}

// NewAggregator returns an Aggregator using analysis.New() and
// scoring.Cumulative unless overridden.
func NewAggregator(opts ...Option) *Aggregator {
	g := &Aggregator{analyzer: analysis.New(), schedule: scoring.NewCumulative()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate computes every sub-score and the combined index. A panicking
// policy yields a zero sub-score and is recorded in Snapshot.Degraded.
func (g *Aggregator) Evaluate(in Inputs) Snapshot {
	var snap Snapshot

	if err := contain(func() { snap.Basic = g.analyzer.Analyze(in.Schedules, in.Today) }); err != nil {
		snap.Basic = analysis.Assessment{Tier: analysis.Classify(0), Advice: analysis.Advice(analysis.Classify(0))}
		snap.Degraded = append(snap.Degraded, "basic: "+err.Error())
	}
	if err := contain(func() { snap.Schedule = g.schedule.Score(in.Schedules, in.Today) }); err != nil {
		snap.Schedule = 0
		snap.Degraded = append(snap.Degraded, "schedule: "+err.Error())
	}

	snap.AvgStress, snap.HasStress = stress.Mean(in.Samples)
	if !snap.HasStress {
		snap.AvgStress = NeutralStress
	}

	raw := blend(snap.Basic.Score, snap.Schedule, snap.AvgStress)
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		snap.Combined = snap.Basic.Score
		snap.Degraded = append(snap.Degraded, "combined: non-finite blend")
	} else {
		snap.Combined = Combine(snap.Basic.Score, snap.Schedule, snap.AvgStress)
	}
	snap.Severity = Classify(snap.Combined)
	snap.Contributions = Contributions{
		Basic:    float64(snap.Basic.Score) * BasicWeight,
		Schedule: float64(snap.Schedule) * ScheduleWeight,
		Stress:   snap.AvgStress * StressScale * StressWeight,
	}
	return snap
}

func contain(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPolicyPanic, r)
		}
	}()
	fn()
	return nil
}
