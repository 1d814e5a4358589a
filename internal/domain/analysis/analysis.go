// Package analysis produces the basic schedule-risk assessment shown at the top
// of the dashboard.
package analysis

import (
	"time"

	"github.com/okian/zerodeadline/internal/domain/model"
	"github.com/okian/zerodeadline/internal/domain/scoring"
)

// Tier is a coarse bucket of the basic score.
type Tier string

// Tiers, highest first.
const (
	TierVeryHigh Tier = "very high"
	TierHigh     Tier = "high"
	TierModerate Tier = "moderate"
	TierLow      Tier = "low"
)

// Lower bounds (inclusive) of each tier.
const (
	VeryHighThreshold = 80
	HighThreshold     = 50
	ModerateThreshold = 20
)

var advice = map[Tier]string{
	TierVeryHigh: "Very high: important deadlines are imminent or already past. Review them right away.",
	TierHigh:     "High: important tasks are due soon. Keep a close eye on your schedule.",
	TierModerate: "Moderate: most tasks are under control. Keep checking in regularly.",
	TierLow:      "Low: schedule risk is very low. You have room to plan ahead.",
}

// Assessment is the result of a basic analysis.
type Assessment struct {
	Score  int    `json:"score"`
	Tier   Tier   `json:"tier"`
	Advice string `json:"advice"`
}

// Analyzer scores a schedule with a policy and classifies the result.
type Analyzer struct {
	policy scoring.Policy
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithPolicy overrides the scoring policy. Defaults to scoring.Averaged.
func WithPolicy(p scoring.Policy) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.policy = p
		}
	}
}

// New returns an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{policy: scoring.NewAveraged()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores items as of today.
func (a *Analyzer) Analyze(items []model.ScheduleItem, today time.Time) Assessment {
	score := a.policy.Score(items, today)
	tier := Classify(score)
	return Assessment{Score: score, Tier: tier, Advice: advice[tier]}
}

// Classify maps a score to its tier.
func Classify(score int) Tier {
	switch {
	case score >= VeryHighThreshold:
		return TierVeryHigh
	case score >= HighThreshold:
		return TierHigh
	case score >= ModerateThreshold:
		return TierModerate
	default:
		return TierLow
	}
}

// Advice returns the advisory text for a tier.
func Advice(t Tier) string {
	return advice[t]
}
