// Package scoring turns a list of deadlines into a bounded schedule-risk
// percentage.
//
// Two policies are provided and kept separate on purpose: Averaged (fast
// reciprocal decay, importance 1-10, normalized per item) and Cumulative
// (slow decay, importance 1-5, normalized against a single task with a 1%
// floor). Callers pick one explicitly.
package scoring

import (
	"math"
	"time"

	"github.com/okian/zerodeadline/internal/domain/model"
)

// Scoring constants shared by the policies.
const (
	// DefaultDaysToDeadline is used when a deadline is missing or malformed.
	DefaultDaysToDeadline = 365
	// MaxScore is the upper bound of every score.
	MaxScore = 100

	secondsPerDay = 24 * 60 * 60
)

// Policy computes a schedule-risk score in [0, 100]. today is the caller's
// civil date; only its year, month and day are used.
type Policy interface {
	Name() string
	Score(items []model.ScheduleItem, today time.Time) int
}

// DaysToDeadline returns whole calendar days from today until the item's
// deadline. Past and same-day deadlines return 0; missing or malformed
// deadlines return DefaultDaysToDeadline.
func DaysToDeadline(item model.ScheduleItem, today time.Time) int {
	if item.Deadline == "" {
		return DefaultDaysToDeadline
	}
	deadline, err := time.Parse(model.DeadlineLayout, item.Deadline)
	if err != nil {
		return DefaultDaysToDeadline
	}
	return max(0, civilDaysBetween(today, deadline))
}

// civilDaysBetween counts calendar days from a to b, ignoring clock time and
// zones: both are reduced to their (year, month, day) first.
func civilDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int((to.Unix() - from.Unix()) / secondsPerDay)
}

// Closeness is the urgency weight 1/(1+days/k): 1.0 on the deadline day,
// decaying toward 0 as the deadline recedes.
func Closeness(days int, k float64) float64 {
	return 1.0 / (1.0 + float64(days)/k)
}

// normalize rounds a percentage to an integer in [0, 100]. Halves round to
// even.
func normalize(pct float64) int {
	if math.IsNaN(pct) {
		return 0
	}
	return clamp(int(math.RoundToEven(min(pct, MaxScore))))
}

func clamp(score int) int {
	return max(0, min(MaxScore, score))
}
