package httputil

import (
	"context"
	"errors"
	"time"
)

// MaxRetryAfter caps how long a server's Retry-After hint can stall a retry.
const MaxRetryAfter = 30 * time.Second

// RetryableError marks a transient failure for [Retry]. After, when set,
// is the server's requested wait before the next attempt.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry calls fn up to attempts times. Only errors wrapping a
// [RetryableError] are retried; the wait starts at delay and doubles after
// each failure, or follows the error's After hint when that is longer. It
// returns the last error, or ctx.Err() if ctx ends while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(err, &re) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, max(delay, min(re.After, MaxRetryAfter))); err != nil {
			return err
		}
		delay *= 2
	}
	return err
}

// RetryWithBackoff retries three times starting at one second.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
