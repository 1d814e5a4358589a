package combined

import "errors"

// ErrPolicyPanic wraps a recovered panic from a scoring policy.
var ErrPolicyPanic = errors.New("scoring policy panicked")
