// Package resilience provides the failure-handling primitives used to call
// unreliable, rate-limited providers.
//
// # Patterns
//
//   - Health Metrics: a rolling record of outcomes (streaks, failure rate,
//     the last 100 latencies) that derives a healthy/unhealthy verdict.
//
//   - Circuit Breaker: a CLOSED / OPEN / HALF_OPEN state machine that gates
//     whether a call may be attempted at all. It owns one HealthMetrics.
//
//   - Retry: exponential backoff with symmetric jitter. Errors classified as
//     "extended" (rate limits) shift the exponent to front-load a longer wait.
//
//   - Rate Limiter: outbound pacing built on golang.org/x/time/rate.
//
//   - Bulkhead: a concurrency cap built on golang.org/x/sync/semaphore.
//
//   - Timeout: bounds a single attempt.
//
// # Usage
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    FailureThreshold: 5,
//	    RecoveryTimeout:  time.Minute,
//	    SuccessThreshold: 3,
//	})
//
//	if !cb.CanExecute() {
//	    return resilience.ErrCircuitOpen
//	}
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
//	        MaxAttempts: 4,
//	        RetryIf:     isTransient,
//	    })),
//	    resilience.WithRateLimiter(rl),
//	    resilience.WithBulkhead(bh),
//	    resilience.WithTimeout(20*time.Second),
//	)
//
//	start := time.Now()
//	if err := executor.Execute(ctx, callProvider); err != nil {
//	    cb.RecordFailure()
//	    return err
//	}
//	cb.RecordSuccess(time.Since(start))
//
// CanExecute may itself move an OPEN breaker to HALF_OPEN, so the check and
// the attempt that follows should be treated as one unit. Concurrent callers
// racing on that transition may both be admitted as probes.
package resilience
