package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 3, SleepFn: noSleep}

	calls := 0
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt != calls {
			t.Errorf("expected attempt %d, got %d", calls, attempt)
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 3, SleepFn: noSleep}

	calls := 0
	err := p.Do(context.Background(), func(int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(error) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustionReturnsLastError(t *testing.T) {
	p := Policy{MaxAttempts: 2, SleepFn: noSleep}

	last := errors.New("attempt two")
	calls := 0
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt == 1 {
			return errors.New("attempt one")
		}
		return last
	}, func(error) bool { return true })

	if !errors.Is(err, last) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_NonRetryableAbortsImmediately(t *testing.T) {
	p := Policy{MaxAttempts: 5, SleepFn: noSleep}

	permanent := errors.New("permanent")
	calls := 0
	err := p.Do(context.Background(), func(int) error {
		calls++
		return permanent
	}, func(err error) bool { return !errors.Is(err, permanent) })

	if !errors.Is(err, permanent) {
		t.Errorf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_NoSleepAfterLastAttempt(t *testing.T) {
	sleeps := 0
	p := Policy{
		MaxAttempts: 3,
		Backoff:     Fixed(time.Second),
		SleepFn: func(_ context.Context, _ time.Duration) error {
			sleeps++
			return nil
		},
	}

	_ = p.Do(context.Background(), func(int) error {
		return errors.New("always fails")
	}, func(error) bool { return true })

	if sleeps != 2 {
		t.Errorf("expected 2 sleeps for 3 attempts, got %d", sleeps)
	}
}

func TestDo_ContextCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := Policy{
		MaxAttempts: 5,
		Backoff:     Fixed(time.Second),
		SleepFn: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	calls := 0
	err := p.Do(ctx, func(int) error {
		calls++
		return errors.New("transient")
	}, func(error) bool { return true })

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_InvalidMaxAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 0}
	err := p.Do(context.Background(), func(int) error { return nil }, nil)
	if !errors.Is(err, ErrInvalidMaxAttempts) {
		t.Errorf("expected ErrInvalidMaxAttempts, got %v", err)
	}
}

func TestExponential_Shape(t *testing.T) {
	backoff := Exponential(time.Second, 5*time.Second)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestFixed(t *testing.T) {
	backoff := Fixed(500 * time.Millisecond)
	for _, attempt := range []int{1, 2, 7} {
		if got := backoff(attempt); got != 500*time.Millisecond {
			t.Errorf("attempt %d: expected 500ms, got %v", attempt, got)
		}
	}
}

func TestSleep_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("sleep did not return promptly on cancelled context")
	}
}
