package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRetry_Defaults(t *testing.T) {
	r := NewRetry(RetryConfig{})

	if r.config.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", r.config.MaxAttempts)
	}
	if r.config.InitialDelay != time.Second {
		t.Errorf("InitialDelay = %v, want 1s", r.config.InitialDelay)
	}
	if r.config.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", r.config.MaxDelay)
	}
	if r.config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", r.config.Multiplier)
	}
	if r.config.Jitter != 0.1 {
		t.Errorf("Jitter = %v, want 0.1", r.config.Jitter)
	}
}

func TestRetry_DelayWithoutJitter(t *testing.T) {
	r := NewRetry(RetryConfig{Jitter: -1})

	tests := []struct {
		attempt  int
		extended bool
		want     time.Duration
	}{
		{0, false, time.Second},
		{1, false, 2 * time.Second},
		{2, false, 4 * time.Second},
		{4, false, 16 * time.Second},
		{5, false, 30 * time.Second},
		{20, false, 30 * time.Second},
		{0, true, 4 * time.Second},
		{1, true, 8 * time.Second},
		{3, true, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := r.Delay(tt.attempt, tt.extended); got != tt.want {
			t.Errorf("Delay(%d, %v) = %v, want %v", tt.attempt, tt.extended, got, tt.want)
		}
	}
}

func TestRetry_DelayJitterBounds(t *testing.T) {
	r := NewRetry(RetryConfig{Jitter: 0.1})

	for attempt := range 10 {
		for _, extended := range []bool{false, true} {
			for range 200 {
				d := r.Delay(attempt, extended)
				if d < 0 {
					t.Fatalf("Delay(%d, %v) = %v, want >= 0", attempt, extended, d)
				}
				if d > r.MaxBackoff() {
					t.Fatalf("Delay(%d, %v) = %v, exceeds %v", attempt, extended, d, r.MaxBackoff())
				}
			}
		}
	}

	if r.MaxBackoff() != 33*time.Second {
		t.Errorf("MaxBackoff() = %v, want 33s", r.MaxBackoff())
	}
}

func TestRetry_DelayMonotonicInExpectation(t *testing.T) {
	r := NewRetry(RetryConfig{})

	mean := func(attempt int, extended bool) time.Duration {
		var sum time.Duration
		for range 500 {
			sum += r.Delay(attempt, extended)
		}
		return sum / 500
	}

	prev := time.Duration(0)
	for attempt := range 6 {
		m := mean(attempt, false)
		if m < prev {
			t.Errorf("mean Delay(%d) = %v, below previous %v", attempt, m, prev)
		}
		prev = m
	}

	if mean(0, true) <= mean(0, false) {
		t.Error("extended backoff not longer than standard for attempt 0")
	}
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_SuccessOnRetry(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Jitter:       -1,
	})

	attempts := 0
	testErr := errors.New("test error")

	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return testErr
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts:  4,
		InitialDelay: time.Millisecond,
	})

	attempts := 0
	testErr := errors.New("test error")
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return testErr
	})

	if !errors.Is(err, testErr) {
		t.Errorf("Execute() error = %v, want %v", err, testErr)
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	permanent := errors.New("permanent")
	r := NewRetry(RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		RetryIf: func(err error) bool {
			return !errors.Is(err, permanent)
		},
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("Execute() error = %v, want %v", err, permanent)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_OnRetryUsesExtendedAndHint(t *testing.T) {
	limited := errors.New("limited")
	var delays []time.Duration

	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Jitter:       -1,
		Extended:     func(err error) bool { return errors.Is(err, limited) },
		RetryAfter: func(err error) time.Duration {
			return time.Hour
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		},
	})

	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		return limited
	})

	if len(delays) != 2 {
		t.Fatalf("OnRetry called %d times, want 2", len(delays))
	}
	for i, d := range delays {
		if d != 50*time.Millisecond {
			t.Errorf("delay[%d] = %v, want hint capped at 50ms", i, d)
		}
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := r.Execute(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
