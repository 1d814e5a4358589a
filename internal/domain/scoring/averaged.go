package scoring

import (
	"time"

	"github.com/okian/zerodeadline/internal/domain/model"
)

// Averaged policy parameters.
const (
	AveragedMinImportance = 1
	AveragedMaxImportance = 10
	// AveragedDecay is K in 1/(1+days/K); with K=1 the weight is 1/(days+1).
	AveragedDecay = 1.0
	// averagedBaseWeight scales every item's risk. The normalization divisor
	// uses the same factor so the two stay consistent.
	averagedBaseWeight = 100.0
)

// Averaged scores each item as importance × 1/(days+1) × 100 and divides the
// total by the maximum the same number of items could reach (importance 10,
// all due today). The result behaves like a mean urgency across the list.
type Averaged struct{}

// NewAveraged returns the averaged policy.
func NewAveraged() Averaged { return Averaged{} }

// Name implements Policy.
func (Averaged) Name() string { return "averaged" }

// Score implements Policy.
func (Averaged) Score(items []model.ScheduleItem, today time.Time) int {
	if len(items) == 0 {
		return 0
	}

	var total, maxPossible float64
	for _, item := range items {
		importance := item.Importance.Clamp(AveragedMinImportance, AveragedMaxImportance)
		weight := Closeness(DaysToDeadline(item, today), AveragedDecay)
		total += float64(importance) * weight * averagedBaseWeight
		maxPossible += AveragedMaxImportance * averagedBaseWeight
	}
	return normalize(total / maxPossible * 100)
}
