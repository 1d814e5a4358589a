package model

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Stress sample bounds.
const (
	MinStress = 1.0
	MaxStress = 10.0
)

// Layouts accepted for the "date" field of stored stress samples.
const (
	StressDateTimeLayout = "2006-01-02 15:04:05"
	stressDateLayout     = "2006-01-02"
)

// ErrInvalidStress is returned when a sample has no usable stress value.
var ErrInvalidStress = errors.New("invalid stress value")

// StressSample is one self-reported stress reading on a 1-10 scale.
type StressSample struct {
	ID        string
	Timestamp time.Time
	Stress    float64
}

type stressWire struct {
	ID        string          `json:"id,omitempty"`
	Date      string          `json:"date,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Stress    json.RawMessage `json:"stress"`
}

// MarshalJSON keeps the on-disk layout of the stress log:
// {"date": "YYYY-MM-DD HH:MM:SS", "stress": x}. The date carries no offset
// and is read back in the local zone, so it is written in that zone too.
func (s StressSample) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID     string  `json:"id,omitempty"`
		Date   string  `json:"date"`
		Stress float64 `json:"stress"`
	}{
		ID:     s.ID,
		Date:   s.Timestamp.In(time.Local).Format(StressDateTimeLayout),
		Stress: s.Stress,
	})
}

// UnmarshalJSON reads a stored sample. The stress value may be a number or a
// numeric string; anything else yields ErrInvalidStress. A time that cannot
// be parsed is left zero for the caller to fill in.
func (s *StressSample) UnmarshalJSON(data []byte) error {
	var w stressWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := parseStress(w.Stress)
	if err != nil {
		return err
	}
	*s = StressSample{ID: w.ID, Stress: v}
	if ts, ok := parseStressTime(w.Date, w.Timestamp); ok {
		s.Timestamp = ts
	}
	return nil
}

func parseStress(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, ErrInvalidStress
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, ErrInvalidStress
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidStress
	}
	return f, nil
}

func parseStressTime(date, timestamp string) (time.Time, bool) {
	if date != "" {
		for _, layout := range []string{StressDateTimeLayout, stressDateLayout} {
			if t, err := time.ParseInLocation(layout, date, time.Local); err == nil {
				return t, true
			}
		}
	}
	if timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
			return t, true
		}
		if t, err := time.ParseInLocation(StressDateTimeLayout, timestamp, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Valid reports whether the stress value is finite and within [1, 10].
func (s StressSample) Valid() bool {
	return !math.IsNaN(s.Stress) && s.Stress >= MinStress && s.Stress <= MaxStress
}
