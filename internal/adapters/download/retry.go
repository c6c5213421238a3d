package download

import (
	"context"
	"errors"
	"time"
)

// Retry bounds how often a transient download failure is retried.
type Retry struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Delay is the wait before the first retry. It doubles after every retry.
	Delay time.Duration
	// MaxDelay caps the wait between two tries.
	MaxDelay time.Duration
}

// DefaultRetry is used when no policy is configured.
var DefaultRetry = Retry{Attempts: 3, Delay: 500 * time.Millisecond, MaxDelay: 10 * time.Second}

// RetryableError marks a failure that may succeed when tried again.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

func retryable(err error) error {
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is marked as transient.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts are exhausted or ctx ends.
// It returns the number of attempts made and the last error.
func (r Retry) Do(ctx context.Context, fn func(attempt int) error) (int, error) {
	attempts := max(r.Attempts, 1)
	delay := r.Delay

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(attempt); err == nil || !IsRetryable(err) || attempt == attempts {
			return attempt, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, errors.Join(ctx.Err(), err)
		case <-timer.C:
		}

		delay *= 2
		if r.MaxDelay > 0 && delay > r.MaxDelay {
			delay = r.MaxDelay
		}
	}
}
