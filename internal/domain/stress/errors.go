package stress

import "errors"

// ErrUnknownPeriod is returned by ParsePeriod for names other than day, week
// and month.
var ErrUnknownPeriod = errors.New("unknown trend period")
