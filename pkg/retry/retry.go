// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Defaults used by external service clients.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

// ErrExhausted wraps the last error once every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy bounds the number of attempts and the delay between them. The
// delay before attempt n (counting from 0) is BaseDelay × 2^(n-1).
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	// OnRetry, if set, is called before each delay with the failed attempt
	// number (from 1) and its error.
	OnRetry func(attempt int, err error)
}

// Default returns the 3-attempt, 1s-doubling policy.
func Default() Policy {
	return Policy{Attempts: DefaultAttempts, BaseDelay: DefaultBaseDelay}
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

// Do calls fn until it succeeds, returns a permanent error, the context ends,
// or the attempts run out. Once ctx ends its error is returned. An attempt
// that fails with its own deadline is retried.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := max(1, p.Attempts)
	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			delay := p.BaseDelay * time.Duration(1<<(attempt-1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var perm permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if attempt+1 < attempts && p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}
