package cache

import (
	"context"
	"errors"
	"time"
)

// Failures of the remote calls dayview makes around its caches: iCalendar
// feed downloads (pkg/source/ics) and the Redis and MongoDB connection
// checks at startup.
var (
	// ErrNotFound marks a feed URL that answered 404.
	ErrNotFound = errors.New("not found")

	// ErrNetwork marks timeouts, refused connections, failed pings and 5xx
	// feed responses.
	ErrNetwork = errors.New("network error")
)

// RetryableError marks a failure that [Retry] should try again, such as a
// feed server returning 503 or Redis not yet accepting connections.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Retry runs fn up to attempts times, doubling delay after each retryable
// failure. Errors not wrapped with [Retryable] are returned immediately.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff retries fn up to 3 times starting with a one second delay.
// Feed downloads and the Redis and MongoDB pings all use it.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}
