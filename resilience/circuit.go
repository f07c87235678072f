package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is rejecting all calls.
	StateOpen
	// StateHalfOpen means the circuit is probing whether the provider recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state as its string form.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Availability is the externally reported status derived from state and health.
type Availability int

const (
	// Available: closed and healthy.
	Available Availability = iota
	// Degraded: closed but unhealthy, or half-open.
	Degraded
	// Unavailable: open.
	Unavailable
)

// String returns the string representation of the availability.
func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Degraded:
		return "degraded"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// MarshalText encodes the availability as its string form.
func (a Availability) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the consecutive failures that open the circuit.
	// Default: 5
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before probing.
	// Default: 60 seconds
	RecoveryTimeout time.Duration

	// SuccessThreshold is the consecutive half-open successes that close it.
	// Default: 3
	SuccessThreshold int

	// OnStateChange is called after the state changes, outside the lock.
	OnStateChange func(from, to State)

	// IsFailure decides whether an error passed through Execute counts as a
	// failure. Default: all non-nil errors.
	IsFailure func(err error) bool

	// Now is the clock. Default: time.Now
	Now func() time.Time
}

// CircuitBreaker gates calls to one provider. Safe for concurrent use.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu             sync.Mutex
	state          State
	health         HealthMetrics
	lastTransition time.Time
	transitions    int

	// halfOpenSuccesses counts successes since the last entry to half-open.
	halfOpenSuccesses int
}

type transition struct {
	from, to State
	changed  bool
}

// NewCircuitBreaker creates a new circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 3
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	cb := &CircuitBreaker{
		config:         config,
		state:          StateClosed,
		lastTransition: config.Now(),
	}
	cb.health.now = config.Now
	return cb
}

// CanExecute reports whether a call may proceed. When the circuit is open and
// the recovery timeout has elapsed, the check itself moves it to half-open and
// admits the call.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	allowed := true
	var t transition
	if cb.state == StateOpen {
		if cb.config.Now().Sub(cb.lastTransition) >= cb.config.RecoveryTimeout {
			t = cb.setStateLocked(StateHalfOpen)
		} else {
			allowed = false
		}
	}
	cb.mu.Unlock()

	cb.notify(t)
	return allowed
}

// RecordSuccess records a successful call with its latency.
func (cb *CircuitBreaker) RecordSuccess(latency time.Duration) {
	cb.mu.Lock()
	cb.health.RecordSuccess(latency)
	var t transition
	if cb.state == StateHalfOpen {
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.config.SuccessThreshold {
			t = cb.setStateLocked(StateClosed)
		}
	}
	cb.mu.Unlock()

	cb.notify(t)
}

// RecordFailure records a failed call. A single half-open failure reopens
// the circuit and restarts the recovery timer.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	cb.health.RecordFailure()
	var t transition
	switch cb.state {
	case StateClosed:
		if cb.health.ConsecutiveFailures >= cb.config.FailureThreshold {
			t = cb.setStateLocked(StateOpen)
		}
	case StateHalfOpen:
		t = cb.setStateLocked(StateOpen)
	}
	cb.mu.Unlock()

	cb.notify(t)
}

// Execute runs op if the circuit admits it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if !cb.CanExecute() {
		return ErrCircuitOpen
	}

	start := cb.config.Now()
	err := op(ctx)
	if cb.config.IsFailure(err) {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess(cb.config.Now().Sub(start))
	}
	return err
}

// State returns the current state without triggering any transition.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Availability derives the reported status from state and health.
func (cb *CircuitBreaker) Availability() Availability {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.availabilityLocked()
}

// Reset forces the circuit closed and clears the consecutive-failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.health.ResetFailureStreak()
	t := cb.setStateLocked(StateClosed)
	cb.mu.Unlock()

	cb.notify(t)
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		State:            cb.state,
		Availability:     cb.availabilityLocked(),
		Health:           cb.health.Snapshot(),
		LastTransition:   cb.lastTransition,
		Transitions:      cb.transitions,
		FailureThreshold: cb.config.FailureThreshold,
		SuccessThreshold: cb.config.SuccessThreshold,
		RecoveryTimeout:  cb.config.RecoveryTimeout,
	}
}

func (cb *CircuitBreaker) availabilityLocked() Availability {
	switch cb.state {
	case StateOpen:
		return Unavailable
	case StateHalfOpen:
		return Degraded
	default:
		if cb.health.IsHealthy() {
			return Available
		}
		return Degraded
	}
}

func (cb *CircuitBreaker) setStateLocked(to State) transition {
	from := cb.state
	cb.state = to
	cb.lastTransition = cb.config.Now()
	cb.halfOpenSuccesses = 0
	if from == to {
		return transition{}
	}
	cb.transitions++
	return transition{from: from, to: to, changed: true}
}

func (cb *CircuitBreaker) notify(t transition) {
	if t.changed && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(t.from, t.to)
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State            State
	Availability     Availability
	Health           HealthSnapshot
	LastTransition   time.Time
	Transitions      int
	FailureThreshold int
	SuccessThreshold int
	RecoveryTimeout  time.Duration
}
