package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// ExtendedBackoffShift is added to the attempt exponent for errors that ask
// for a longer wait, such as provider rate limits.
const ExtendedBackoffShift = 2

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 4
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 1s
	InitialDelay time.Duration

	// MaxDelay caps the delay before jitter is applied.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the exponential backoff base.
	// Default: 2.0
	Multiplier float64

	// Jitter is the symmetric jitter fraction: the delay is scaled by a
	// uniform factor in [1-Jitter, 1+Jitter]. Zero selects the default,
	// a negative value disables jitter.
	// Default: 0.1
	Jitter float64

	// RetryIf determines if an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// Extended reports errors that use the extended backoff exponent.
	Extended func(err error) bool

	// RetryAfter extracts a server-provided wait hint from an error.
	// A positive hint raises the computed delay, capped at MaxBackoff.
	RetryAfter func(err error) time.Duration

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry implements retry with exponential backoff and jitter.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 4
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.Jitter == 0 {
		config.Jitter = 0.1
	}
	if config.Jitter < 0 {
		config.Jitter = 0
	}
	if config.Jitter > 1 {
		config.Jitter = 1
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config}
}

// MaxAttempts returns the configured attempt budget.
func (r *Retry) MaxAttempts() int {
	return r.config.MaxAttempts
}

// Execute runs the operation with retry logic. It returns nil on the first
// success, the first non-retryable error, the last error once attempts are
// exhausted, or the context error if cancelled while waiting.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}
		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.delayFor(attempt-1, err)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// Delay computes the wait before retry number attempt (0-based):
// min(InitialDelay * Multiplier^n, MaxDelay) scaled by jitter, where n is
// attempt, plus ExtendedBackoffShift when extended is set. Never negative.
func (r *Retry) Delay(attempt int, extended bool) time.Duration {
	n := attempt
	if extended {
		n += ExtendedBackoffShift
	}
	if n < 0 {
		n = 0
	}

	base := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(n))
	if base > float64(r.config.MaxDelay) || math.IsInf(base, 1) {
		base = float64(r.config.MaxDelay)
	}

	if r.config.Jitter > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		base *= 1 + r.config.Jitter*(2*rand.Float64()-1)
	}
	if base < 0 {
		return 0
	}
	return time.Duration(base)
}

// MaxBackoff is the largest delay Delay can return.
func (r *Retry) MaxBackoff() time.Duration {
	return time.Duration(float64(r.config.MaxDelay) * (1 + r.config.Jitter))
}

func (r *Retry) delayFor(attempt int, err error) time.Duration {
	extended := r.config.Extended != nil && r.config.Extended(err)
	delay := r.Delay(attempt, extended)

	if r.config.RetryAfter != nil {
		if hint := r.config.RetryAfter(err); hint > delay {
			delay = min(hint, r.MaxBackoff())
		}
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
