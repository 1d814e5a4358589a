package llm

import "errors"

// Sentinel kinds for advisor errors.
var (
	ErrNotConfigured = errors.New("llm is not configured")
	ErrEmptyResponse = errors.New("llm returned no answer")
	ErrEmptyQuestion = errors.New("question is empty")
)
