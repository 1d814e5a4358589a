// Package history defines the bounded time series of combined risk values.
package history

import (
	"context"

	"github.com/okian/zerodeadline/internal/domain/model"
)

// MaxEntries is how many entries a history keeps.
const MaxEntries = 30

// Store persists the risk history.
type Store interface {
	// Load returns the stored entries in insertion order. Missing or
	// unreadable state loads as an empty history.
	Load(ctx context.Context) []model.RiskHistoryEntry
	// Record appends score stamped with the current time unless it equals
	// the last stored risk. The outcome carries the last entry seen inside
	// the same locked cycle. State that exists but cannot be read (other
	// than corrupt content) fails the record and is left untouched.
	Record(ctx context.Context, score int) (Outcome, error)
}

// Outcome describes one Record call.
type Outcome struct {
	// Previous is the last entry before the record, if HasPrevious.
	Previous    model.RiskHistoryEntry
	HasPrevious bool
	Appended    bool
}

// NewOutcome builds the outcome of appending to entries.
func NewOutcome(entries []model.RiskHistoryEntry, appended bool) Outcome {
	prev, ok := Last(entries)
	return Outcome{Previous: prev, HasPrevious: ok, Appended: appended}
}

// Append returns entries with entry added, unless the last entry carries the
// same risk. The front is trimmed so at most limit entries remain; limit <= 0
// means MaxEntries. The input slice is never modified.
func Append(entries []model.RiskHistoryEntry, entry model.RiskHistoryEntry, limit int) ([]model.RiskHistoryEntry, bool) {
	if limit <= 0 {
		limit = MaxEntries
	}
	if n := len(entries); n > 0 && entries[n-1].Risk == entry.Risk {
		return entries, false
	}
	out := make([]model.RiskHistoryEntry, 0, min(len(entries)+1, limit))
	if drop := len(entries) + 1 - limit; drop > 0 {
		entries = entries[drop:]
	}
	out = append(out, entries...)
	return append(out, entry), true
}

// Last returns the most recent entry.
func Last(entries []model.RiskHistoryEntry) (model.RiskHistoryEntry, bool) {
	if len(entries) == 0 {
		return model.RiskHistoryEntry{}, false
	}
	return entries[len(entries)-1], true
}
