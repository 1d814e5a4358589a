// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DeadlineLayout is the calendar-date layout used for schedule deadlines.
const DeadlineLayout = "2006-01-02"

// Legacy localized keys still found in older schedule files.
const (
	legacyTitleKey      = "제목"
	legacyDeadlineKey   = "마감일"
	legacyImportanceKey = "중요도"
)

// ScheduleItem is one deadline-bearing task.
type ScheduleItem struct {
	Title string `json:"title"`
	// Deadline is a YYYY-MM-DD date. Empty or malformed values are allowed
	// and mean "no deadline".
	Deadline   string     `json:"deadline"`
	Importance Importance `json:"importance"`
}

// UnmarshalJSON accepts both canonical and legacy key names. Canonical keys
// win when both are present. Field values of the wrong type are treated as
// missing rather than failing the decode.
func (s *ScheduleItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pick := func(keys ...string) json.RawMessage {
		for _, k := range keys {
			if v, ok := raw[k]; ok && !isNull(v) {
				return v
			}
		}
		return nil
	}

	*s = ScheduleItem{
		Title:    rawString(pick("title", legacyTitleKey)),
		Deadline: rawString(pick("deadline", legacyDeadlineKey)),
	}
	if v := pick("importance", legacyImportanceKey); v != nil {
		_ = s.Importance.UnmarshalJSON(v)
	}
	return nil
}

// Importance is a possibly-missing integer importance. Scoring policies clamp
// it into their own range; a missing value clamps to the lower bound.
type Importance struct {
	value int
	set   bool
}

// NewImportance returns a present importance.
func NewImportance(v int) Importance {
	return Importance{value: v, set: true}
}

// Value returns the raw importance and whether it was present.
func (i Importance) Value() (int, bool) {
	return i.value, i.set
}

// Clamp maps the importance into [lo, hi]. A missing value maps to lo.
func (i Importance) Clamp(lo, hi int) int {
	if !i.set {
		return lo
	}
	return max(lo, min(hi, i.value))
}

// MarshalJSON writes the number, or null when missing.
func (i Importance) MarshalJSON() ([]byte, error) {
	if !i.set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(i.value)), nil
}

// UnmarshalJSON accepts numbers (truncated toward zero) and integer strings.
// Anything else leaves the importance missing; it never returns an error.
func (i *Importance) UnmarshalJSON(data []byte) error {
	*i = Importance{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isNull(data) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		*i = NewImportance(n)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	*i = NewImportance(truncate(f))
	return nil
}

func truncate(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Trunc(f))
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func rawString(v json.RawMessage) string {
	if v == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return ""
}
