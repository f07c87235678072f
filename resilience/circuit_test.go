package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 3,
		Now:              clock.Now,
	})
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.State() != StateClosed {
		t.Errorf("Initial state = %v, want closed", cb.State())
	}
	if cb.config.FailureThreshold != 5 {
		t.Errorf("FailureThreshold = %d, want 5", cb.config.FailureThreshold)
	}
	if cb.config.RecoveryTimeout != 60*time.Second {
		t.Errorf("RecoveryTimeout = %v, want 60s", cb.config.RecoveryTimeout)
	}
	if cb.config.SuccessThreshold != 3 {
		t.Errorf("SuccessThreshold = %d, want 3", cb.config.SuccessThreshold)
	}
	if cb.Availability() != Available {
		t.Errorf("Availability() = %v, want available", cb.Availability())
	}
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)

	for i := range 4 {
		cb.RecordFailure()
		if cb.State() != StateClosed {
			t.Fatalf("after %d failures state = %v, want closed", i+1, cb.State())
		}
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("after 5 failures state = %v, want open", cb.State())
	}
	if cb.CanExecute() {
		t.Error("CanExecute() = true while open, want false")
	}
	if cb.Availability() != Unavailable {
		t.Errorf("Availability() = %v, want unavailable", cb.Availability())
	}
}

func TestCircuitBreaker_SuccessResetsStreak(t *testing.T) {
	cb := newTestBreaker(newFakeClock())

	for range 4 {
		cb.RecordFailure()
	}
	cb.RecordSuccess(time.Millisecond)
	for range 4 {
		cb.RecordFailure()
	}

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_RecoveryCycle(t *testing.T) {
	clock := newFakeClock()
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Now: clock.Now,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	for range 5 {
		cb.RecordFailure()
	}

	clock.Advance(59 * time.Second)
	if cb.CanExecute() {
		t.Fatal("CanExecute() = true before recovery timeout")
	}
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	clock.Advance(time.Second)
	if !cb.CanExecute() {
		t.Fatal("CanExecute() = false after recovery timeout")
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %v, want half-open", cb.State())
	}
	if cb.Availability() != Degraded {
		t.Errorf("Availability() = %v, want degraded", cb.Availability())
	}

	cb.RecordSuccess(time.Millisecond)
	cb.RecordSuccess(time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("after 2 probes state = %v, want half-open", cb.State())
	}
	cb.RecordSuccess(time.Millisecond)
	if cb.State() != StateClosed {
		t.Fatalf("after 3 probes state = %v, want closed", cb.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_SuccessesWhileOpenDoNotCountTowardClosing(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)

	for range 5 {
		cb.RecordFailure()
	}
	// Calls admitted before the circuit opened may still complete.
	cb.RecordSuccess(time.Millisecond)
	cb.RecordSuccess(time.Millisecond)
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	clock.Advance(61 * time.Second)
	if !cb.CanExecute() {
		t.Fatal("CanExecute() = false after recovery timeout")
	}

	cb.RecordSuccess(time.Millisecond)
	cb.RecordSuccess(time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("after 2 half-open successes state = %v, want half-open", cb.State())
	}
	cb.RecordSuccess(time.Millisecond)
	if cb.State() != StateClosed {
		t.Errorf("after 3 half-open successes state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenCountRestartsAfterReopen(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)

	for range 5 {
		cb.RecordFailure()
	}
	clock.Advance(60 * time.Second)
	cb.CanExecute()
	cb.RecordSuccess(time.Millisecond)
	cb.RecordSuccess(time.Millisecond)
	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	clock.Advance(60 * time.Second)
	cb.CanExecute()
	cb.RecordSuccess(time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Errorf("one success after reopening closed the circuit: state = %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)

	for range 5 {
		cb.RecordFailure()
	}
	clock.Advance(60 * time.Second)
	if !cb.CanExecute() {
		t.Fatal("CanExecute() = false after recovery timeout")
	}

	cb.RecordSuccess(time.Millisecond)
	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	// The recovery timer restarts from the reopen.
	clock.Advance(30 * time.Second)
	if cb.CanExecute() {
		t.Error("CanExecute() = true 30s after reopen, want false")
	}
	clock.Advance(30 * time.Second)
	if !cb.CanExecute() {
		t.Error("CanExecute() = false 60s after reopen, want true")
	}
}

func TestCircuitBreaker_StateIsPure(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)

	for range 5 {
		cb.RecordFailure()
	}
	clock.Advance(2 * time.Minute)

	if cb.State() != StateOpen {
		t.Errorf("State() = %v, want open until CanExecute is called", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := newTestBreaker(newFakeClock())

	for range 5 {
		cb.RecordFailure()
	}
	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
	if !cb.CanExecute() {
		t.Error("CanExecute() = false after reset")
	}
	m := cb.Metrics()
	if m.Health.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0", m.Health.ConsecutiveFailures)
	}
	if m.Health.TotalRequests != 5 {
		t.Errorf("TotalRequests = %d, want history kept at 5", m.Health.TotalRequests)
	}

	// One more failure must not reopen immediately.
	cb.RecordFailure()
	if cb.State() != StateClosed {
		t.Errorf("State() = %v after one failure post-reset, want closed", cb.State())
	}
}

func TestCircuitBreaker_ClosedButUnhealthyIsDegraded(t *testing.T) {
	cb := newTestBreaker(newFakeClock())

	cb.RecordSuccess(45 * time.Second)

	if cb.State() != StateClosed {
		t.Fatalf("State() = %v, want closed", cb.State())
	}
	if cb.Availability() != Degraded {
		t.Errorf("Availability() = %v, want degraded", cb.Availability())
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})
	testErr := errors.New("test error")

	for range 2 {
		if err := cb.Execute(context.Background(), func(ctx context.Context) error {
			return testErr
		}); !errors.Is(err, testErr) {
			t.Fatalf("Execute() error = %v, want %v", err, testErr)
		}
	}

	called := false
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("operation ran while circuit open")
	}
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	ignored := errors.New("ignored")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, ignored)
		},
	})

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return ignored })
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1000})

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if cb.CanExecute() {
				if i%2 == 0 {
					cb.RecordSuccess(time.Millisecond)
				} else {
					cb.RecordFailure()
				}
			}
			_ = cb.Metrics()
		}(i)
	}
	wg.Wait()

	if got := cb.Metrics().Health.TotalRequests; got != 100 {
		t.Errorf("TotalRequests = %d, want 100", got)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestAvailability_String(t *testing.T) {
	tests := []struct {
		a    Availability
		want string
	}{
		{Available, "available"},
		{Degraded, "degraded"},
		{Unavailable, "unavailable"},
		{Availability(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("Availability(%d).String() = %q, want %q", tt.a, got, tt.want)
		}
	}
}
