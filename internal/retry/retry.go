// Package retry provides a bounded retry policy with pluggable backoff
// and an injectable sleep, shared by the vision extraction loop and
// both levels of the reranker state machine. Injecting the sleep keeps
// tests free of real timers.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidMaxAttempts signals a policy with a non-positive attempt bound.
var ErrInvalidMaxAttempts = errors.New("retry: max attempts must be positive")

// BackoffFunc maps a 1-based failed attempt number to the delay before
// the next attempt.
type BackoffFunc func(attempt int) time.Duration

// Fixed returns a constant delay between attempts.
func Fixed(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// Exponential returns base × 2^(attempt-1), capped at maxDelay.
func Exponential(base, maxDelay time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= maxDelay {
				return maxDelay
			}
		}
		if d > maxDelay {
			return maxDelay
		}
		return d
	}
}

// SleepFunc waits for d or until the context is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default context-aware SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy is a bounded retry policy.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	SleepFn     SleepFunc
}

// New creates a policy with the default sleep.
func New(maxAttempts int, backoff BackoffFunc) Policy {
	return Policy{MaxAttempts: maxAttempts, Backoff: backoff, SleepFn: Sleep}
}

// Do runs op until it succeeds, the attempt bound is reached, the
// context is done, or retryable reports the failure as permanent.
// op receives the 1-based attempt number. Returns the last error.
func (p Policy) Do(ctx context.Context, op func(attempt int) error, retryable func(error) bool) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	sleep := p.SleepFn
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(attempt)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return lastErr
}
