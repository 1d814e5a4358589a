package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMissingDependency = errors.New("missing service dependency")
)
