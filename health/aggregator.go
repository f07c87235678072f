package health

import (
	"context"
	"slices"
	"sync"
	"time"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout is the maximum time to wait for all checks.
	// Default: 10 seconds
	Timeout time.Duration

	// Sequential runs checks one after another instead of concurrently.
	Sequential bool
}

// RegisterOption configures a registered checker.
type RegisterOption func(*registration)

type registration struct {
	checker     Checker
	nonCritical bool
}

// NonCritical caps the checker's contribution to the overall status at
// Degraded.
func NonCritical() RegisterOption {
	return func(r *registration) {
		r.nonCritical = true
	}
}

// Aggregator combines multiple health checkers into a single report.
type Aggregator struct {
	config   AggregatorConfig
	mu       sync.RWMutex
	checkers map[string]registration
	order    []string
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Aggregator{
		config:   cfg,
		checkers: make(map[string]registration),
	}
}

// Register adds or replaces a health checker.
func (a *Aggregator) Register(name string, checker Checker, opts ...RegisterOption) {
	reg := registration{checker: checker}
	for _, opt := range opts {
		opt(&reg)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = reg
}

// Unregister removes a health checker.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.checkers, name)
	a.order = slices.DeleteFunc(a.order, func(n string) bool { return n == name })
}

// CheckerNames returns registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.order)
}

// Check runs a single named health check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	reg, ok := a.checkers[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return a.runCheck(ctx, reg.checker), nil
}

// CheckAll runs all registered health checks and returns the results.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	return a.Report(ctx).Results
}

// Report is the outcome of running every registered check.
type Report struct {
	Status    Status
	Results   map[string]Result
	Timestamp time.Time
}

// Report runs every check and computes the overall status.
func (a *Aggregator) Report(ctx context.Context) Report {
	a.mu.RLock()
	names := slices.Clone(a.order)
	regs := make([]registration, len(names))
	for i, name := range names {
		regs[i] = a.checkers[name]
	}
	a.mu.RUnlock()

	start := time.Now()
	results := make([]Result, len(names))
	if len(names) > 0 {
		ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()

		if a.config.Sequential {
			for i, reg := range regs {
				results[i] = a.runCheck(ctx, reg.checker)
			}
		} else {
			var wg sync.WaitGroup
			for i, reg := range regs {
				wg.Go(func() {
					results[i] = a.runCheck(ctx, reg.checker)
				})
			}
			wg.Wait()
		}
	}

	report := Report{
		Status:    StatusHealthy,
		Results:   make(map[string]Result, len(names)),
		Timestamp: start,
	}
	for i, name := range names {
		r := results[i]
		report.Results[name] = r

		status := r.Status
		if regs[i].nonCritical && status == StatusUnhealthy {
			status = StatusDegraded
		}
		report.Status = max(report.Status, status)
	}
	return report
}

// OverallStatus returns the worst status among results.
func OverallStatus(results map[string]Result) Status {
	status := StatusHealthy
	for _, r := range results {
		status = max(status, r.Status)
	}
	return status
}

func (a *Aggregator) runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()
	resultCh := make(chan Result, 1)

	go func() {
		result := checker.Check(ctx)
		result.Duration = time.Since(start)
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "check timed out",
			Error:     ErrCheckTimeout,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}
