// Package stress aggregates self-reported stress samples into means, trends
// and month-over-month comparisons.
package stress

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/zerodeadline/internal/domain/model"
)

// Mean returns the mean of the valid samples rounded to two decimals. ok is
// false when no sample is valid.
func Mean(samples []model.StressSample) (mean float64, ok bool) {
	var sum float64
	var n int
	for _, s := range samples {
		if !s.Valid() {
			continue
		}
		sum += s.Stress
		n++
	}
	if n == 0 {
		return 0, false
	}
	return round2(sum / float64(n)), true
}

// Summary describes a set of samples for reports and prompts.
type Summary struct {
	Count int     `json:"count"`
	Valid int     `json:"valid"`
	Mean  float64 `json:"mean"`
	Max   float64 `json:"max"`
}

// Summarize counts all samples and computes mean and max over the valid ones.
func Summarize(samples []model.StressSample) Summary {
	sum := Summary{Count: len(samples)}
	var total float64
	for _, s := range samples {
		if !s.Valid() {
			continue
		}
		total += s.Stress
		sum.Max = max(sum.Max, s.Stress)
		sum.Valid++
	}
	if sum.Valid > 0 {
		sum.Mean = round2(total / float64(sum.Valid))
	}
	return sum
}

// String renders the summary as a single sentence.
func (s Summary) String() string {
	switch {
	case s.Count == 0:
		return "No recent stress records."
	case s.Valid == 0:
		return "There are recent stress records but none has a valid score."
	default:
		return fmt.Sprintf("Recent stress records: %d, mean %.1f, max %.1f.", s.Count, s.Mean, s.Max)
	}
}

// Period selects the bucket size of a trend.
type Period string

// Supported periods.
const (
	Day   Period = "day"
	Week  Period = "week"
	Month Period = "month"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Day, Week, Month:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Point is the mean of one non-empty bucket.
type Point struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Mean  float64   `json:"mean"`
	Count int       `json:"count"`
}

// Trend buckets valid samples by period and returns one point per non-empty
// bucket in chronological order. Buckets follow each sample's civil date.
// Weeks run Tuesday through Monday and are labeled with the closing Monday.
func Trend(samples []model.StressSample, period Period) []Point {
	type bucket struct {
		start time.Time
		label string
		sum   float64
		n     int
	}
	buckets := make(map[string]*bucket)
	for _, s := range samples {
		if !s.Valid() || s.Timestamp.IsZero() {
			continue
		}
		start, label := bucketOf(s.Timestamp, period)
		b, ok := buckets[label]
		if !ok {
			b = &bucket{start: start, label: label}
			buckets[label] = b
		}
		b.sum += s.Stress
		b.n++
	}

	points := make([]Point, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, Point{Label: b.label, Start: b.start, Mean: round2(b.sum / float64(b.n)), Count: b.n})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Start.Before(points[j].Start) })
	return points
}

func bucketOf(t time.Time, period Period) (time.Time, string) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	switch period {
	case Week:
		// Days until the next Monday, zero when already Monday.
		ahead := (int(time.Monday) - int(day.Weekday()) + 7) % 7
		end := day.AddDate(0, 0, ahead)
		return end.AddDate(0, 0, -6), end.Format(model.DeadlineLayout)
	case Month:
		start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
		return start, start.Format("2006-01")
	default:
		return day, day.Format(model.DeadlineLayout)
	}
}

// Comparison holds the mean of the current and previous calendar month.
// An empty month counts as 0.
type Comparison struct {
	CurrentMonth  string  `json:"current_month"`
	PreviousMonth string  `json:"previous_month"`
	Current       float64 `json:"current"`
	Previous      float64 `json:"previous"`
	Delta         float64 `json:"delta"`
}

// MonthOverMonth compares the month containing now with the month before it.
// Samples dated after now still count toward the current month.
func MonthOverMonth(samples []model.StressSample, now time.Time) Comparison {
	y, m, _ := now.Date()
	curStart := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	prevStart := curStart.AddDate(0, -1, 0)

	var cur, prev []model.StressSample
	for _, s := range samples {
		switch {
		case !s.Timestamp.Before(curStart):
			cur = append(cur, s)
		case !s.Timestamp.Before(prevStart):
			prev = append(prev, s)
		}
	}
	c, _ := Mean(cur)
	p, _ := Mean(prev)
	return Comparison{
		CurrentMonth:  curStart.Format("2006-01"),
		PreviousMonth: prevStart.Format("2006-01"),
		Current:       c,
		Previous:      p,
		Delta:         round2(c - p),
	}
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
