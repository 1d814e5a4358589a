package scoring

import (
	"time"

	"github.com/okian/zerodeadline/internal/domain/model"
)

// Cumulative policy parameters.
const (
	CumulativeMinImportance = 1
	CumulativeMaxImportance = 5
	// CumulativeDecay is K in 1/(1+days/K). Larger K decays more slowly.
	CumulativeDecay = 15.0
)

// Cumulative sums importance × 1/(1+days/15) over all items and divides by
// the risk of one importance-5 task due today, so several pressing tasks
// saturate at 100. Any nonzero score below 1% is reported as 1%.
type Cumulative struct{}

// NewCumulative returns the cumulative policy.
func NewCumulative() Cumulative { return Cumulative{} }

// Name implements Policy.
func (Cumulative) Name() string { return "cumulative" }

// Score implements Policy.
func (Cumulative) Score(items []model.ScheduleItem, today time.Time) int {
	if len(items) == 0 {
		return 0
	}

	var total float64
	for _, item := range items {
		importance := item.Importance.Clamp(CumulativeMinImportance, CumulativeMaxImportance)
		total += float64(importance) * Closeness(DaysToDeadline(item, today), CumulativeDecay)
	}

	const singleTaskMax = CumulativeMaxImportance * 1.0
	pct := total / singleTaskMax * 100
	if pct > 0 && pct < 1 {
		pct = 1
	}
	return normalize(pct)
}
