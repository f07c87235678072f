package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/genops/budget"
	"github.com/jonwraymond/genops/generation"
	"github.com/jonwraymond/genops/observe"
	"github.com/jonwraymond/genops/registry"
	"github.com/jonwraymond/genops/resilience"
)

// Orchestrator runs generation calls against a Registry.
//
// Contract:
//   - Concurrency: safe for concurrent use; calls share breakers, stats and
//     the ledger through the registry.
//   - Context: cancellation is passed to the adapter and interrupts backoff.
//   - Errors: every failure is a *generation.Error.
type Orchestrator struct {
	registry *registry.Registry
	mw       *observe.Middleware
	logger   observe.Logger
	now      func() time.Time
	newID    func() string

	budgetWarning float64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMiddleware wraps every call with tracing, metrics and logging.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *Orchestrator) {
		if mw != nil {
			o.mw = mw
		}
	}
}

// WithLogger sets the logger used for per-attempt events.
// Default: the middleware's logger.
func WithLogger(l observe.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithClock sets the clock used for latency and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator sets the request ID generator. Default: random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithBudgetWarning sets the share of the ceiling at which the budget
// health check reports degraded. Default: 0.8
func WithBudgetWarning(threshold float64) Option {
	return func(o *Orchestrator) {
		o.budgetWarning = threshold
	}
}

// New creates an orchestrator over reg.
func New(reg *registry.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: reg,
		mw:       observe.NewMiddleware(nil, nil, nil),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = o.mw.Logger()
	}
	return o
}

// Registry returns the underlying registry.
func (o *Orchestrator) Registry() *registry.Registry {
	return o.registry
}

// Generate runs one generation call. The request is copied; the caller's
// value is never modified. On failure the returned result is nil and the
// error is a *generation.Error.
func (o *Orchestrator) Generate(ctx context.Context, req generation.Request) (*generation.Result, error) {
	req = req.Clone()
	if req.ID == "" {
		req.ID = o.newID()
	}

	var result *generation.Result
	call := func(ctx context.Context, meta observe.CallMeta) (observe.Outcome, error) {
		res, outcome, err := o.generate(ctx, req)
		result = res
		return outcome, err
	}

	if req.Provider == "" {
		name, err := o.registry.Select(ctx, req)
		if err != nil {
			_, err = o.mw.Wrap(func(context.Context, observe.CallMeta) (observe.Outcome, error) {
				return observe.Outcome{}, err
			})(ctx, observe.CallMetaFor(req))
			return nil, err
		}
		req.Provider = name
	}

	if _, err := o.mw.Wrap(call)(ctx, observe.CallMetaFor(req)); err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) generate(ctx context.Context, req generation.Request) (*generation.Result, observe.Outcome, error) {
	var outcome observe.Outcome
	name := req.Provider
	start := o.now()

	breaker, err := o.registry.Breaker(name)
	if err != nil {
		return nil, outcome, err
	}
	if o.registry.IsDisabled(name) {
		return nil, outcome, generation.Errorf(generation.ClassDisabled, name, "provider is disabled")
	}
	if !breaker.CanExecute() {
		return nil, outcome, generation.NewError(generation.ClassProviderUnavailable, name, resilience.ErrCircuitOpen)
	}

	adapter, err := o.registry.GetOrCreate(name)
	if err != nil {
		return nil, outcome, err
	}
	caps := adapter.Capabilities()
	if err := caps.Validate(name, req); err != nil {
		return nil, outcome, err
	}

	est := budget.EstimateCost(req, caps)
	if err := o.registry.Ledger().Check(name, est, req.BudgetLimit); err != nil {
		return nil, outcome, err
	}

	executor, err := o.registry.Executor(name)
	if err != nil {
		return nil, outcome, err
	}

	logger := o.logger.WithCall(observe.CallMetaFor(req))
	var (
		res     *generation.Result
		latency time.Duration
	)
	err = executor.Execute(ctx, func(ctx context.Context) error {
		outcome.Attempts++
		if outcome.Attempts > 1 {
			logger.Debug(ctx, "retrying generation", observe.Field{Key: "attempt", Value: outcome.Attempts})
		}

		began := o.now()
		r, err := adapter.Perform(ctx, req)
		latency = o.now().Sub(began)
		if err == nil && (r == nil || !r.Success) {
			err = unsuccessful(r)
		}
		if err != nil {
			err = generation.Classify(name, err)
			logger.Debug(ctx, "generation attempt failed",
				observe.Field{Key: "attempt", Value: outcome.Attempts},
				observe.Field{Key: observe.AttrErrorClass, Value: generation.ClassOf(err).String()},
				observe.Field{Key: "error", Value: err.Error()},
			)
			return err
		}
		res = r
		return nil
	})

	elapsed := o.now().Sub(start)
	if err != nil {
		err = generation.Classify(name, err)
		if countsAsProviderFailure(ctx, err) {
			breaker.RecordFailure()
		}
		_ = o.registry.RecordCall(name, registry.Call{Latency: elapsed})
		return nil, outcome, err
	}

	breaker.RecordSuccess(latency)
	cost := res.CostOr(est.Amount)
	if math.IsNaN(cost) || cost < 0 {
		o.logger.Warn(ctx, "adapter reported an invalid cost",
			observe.Field{Key: observe.AttrProvider, Value: name},
			observe.Field{Key: "cost", Value: fmt.Sprint(cost)},
		)
		cost = 0
	}
	o.registry.Ledger().Commit(cost, name, req.ProjectID)
	_ = o.registry.RecordCall(name, registry.Call{Success: true, Cost: cost, Latency: elapsed})

	out := *res
	out.RequestID = req.ID
	out.Provider = name
	if out.Model == "" {
		out.Model = req.Model
	}
	out.Cost = generation.Amount(cost)
	out.Elapsed = elapsed
	out.CompletedAt = o.now()
	outcome.Cost = cost
	return &out, outcome, nil
}

func unsuccessful(r *generation.Result) error {
	if r != nil && r.Error != "" {
		return errors.New(r.Error)
	}
	return errors.New("provider returned no result")
}

// countsAsProviderFailure excludes failures that say nothing about the
// provider's health: rejected credentials, local admission rejections and
// calls the caller abandoned.
func countsAsProviderFailure(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch generation.ClassOf(err) {
	case generation.ClassAuthentication, generation.ClassCanceled:
		return false
	}
	return !errors.Is(err, resilience.ErrBulkheadFull) && !errors.Is(err, resilience.ErrRateLimitExceeded)
}
