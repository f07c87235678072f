package resilience

import (
	"context"
	"time"
)

// Executor runs an operation through retry and a per-attempt pipeline.
//
// Each attempt passes, in order, through the rate limiter, the bulkhead and
// the timeout. Retry wraps the whole pipeline, so a rate-limit rejection or
// a timed-out attempt is retried like any other error RetryIf accepts.
// Circuit breaking is deliberately left to the caller, which decides what
// counts as a provider failure.
type Executor struct {
	retry       *Retry
	rateLimiter *RateLimiter
	bulkhead    *Bulkhead
	timeout     *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to each attempt.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to each attempt.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		if timeout > 0 {
			e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
		}
	}
}

// Retry returns the configured retry handler, or nil.
func (e *Executor) Retry() *Retry {
	return e.retry
}

// Execute runs op with retries; each attempt goes through Attempt.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	attempt := func(ctx context.Context) error {
		return e.Attempt(ctx, op)
	}
	if e.retry == nil {
		return attempt(ctx)
	}
	return e.retry.Execute(ctx, attempt)
}

// Attempt runs op once through the rate limiter, bulkhead and timeout.
func (e *Executor) Attempt(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}
