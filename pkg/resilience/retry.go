package resilience

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig configures exponential backoff
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// RetryableErrors reports whether err is worth another attempt; nil retries everything
	RetryableErrors func(error) bool
}

// DefaultRetryConfig makes three attempts starting at 100ms, doubling up to 5s
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

func (c *RetryConfig) retryable(err error) bool {
	return c.RetryableErrors == nil || c.RetryableErrors(err)
}

// backoff returns the delay that follows d
func (c *RetryConfig) backoff(d time.Duration) time.Duration {
	next := time.Duration(float64(d) * c.BackoffFactor)
	if next > c.MaxDelay {
		return c.MaxDelay
	}
	return next
}

// Retry calls fn until it succeeds, attempts run out, it returns a
// non-retryable error, or ctx ends.
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	_, err := RetryWithResult(ctx, config, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithResult is Retry for functions that produce a value
func RetryWithResult[T any](ctx context.Context, config *RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	delay := config.InitialDelay
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !config.retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == config.MaxAttempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay = config.backoff(delay)
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", config.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
