package model

import "time"

// legacyISOLayout matches timestamps written without a zone offset by older
// versions of the dashboard.
const legacyISOLayout = "2006-01-02T15:04:05.999999"

// RiskHistoryEntry is one recorded value of the combined risk index.
type RiskHistoryEntry struct {
	Timestamp string `json:"timestamp"`
	Risk      int    `json:"risk"`
}

// NewRiskHistoryEntry stamps risk with at, formatted as RFC 3339.
func NewRiskHistoryEntry(at time.Time, risk int) RiskHistoryEntry {
	return RiskHistoryEntry{Timestamp: at.Format(time.RFC3339Nano), Risk: risk}
}

// Time parses Timestamp. Zone-less timestamps are read in the local zone.
func (e RiskHistoryEntry) Time() (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(legacyISOLayout, e.Timestamp, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}
