package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("schedule not found")
	ErrInvalidSample = errors.New("invalid stress sample")
	ErrCorrupt       = errors.New("stored state is corrupt")
	ErrClosed        = errors.New("store is closed")
)
