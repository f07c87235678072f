// Package mock provides a deterministic, scriptable generation adapter for
// local runs and tests.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/genops/budget"
	"github.com/jonwraymond/genops/generation"
)

// Step scripts the outcome of one Perform call.
type Step struct {
	// Err is returned instead of a result when set.
	Err error

	// Unsuccessful returns a result with Success=false and this message.
	Unsuccessful string

	// Cost overrides the reported cost. When nil the adapter reports its
	// own estimate, unless NoCost is set.
	Cost   *float64
	NoCost bool

	// Delay is added to the adapter latency for this call.
	Delay time.Duration
}

// Succeed is a successful step reporting the estimated cost.
func Succeed() Step { return Step{} }

// SucceedWithCost is a successful step reporting cost.
func SucceedWithCost(cost float64) Step { return Step{Cost: generation.Amount(cost)} }

// Fail is a step returning err.
func Fail(err error) Step { return Step{Err: err} }

// Adapter implements generation.Adapter from a script of steps.
type Adapter struct {
	caps       generation.Capabilities
	latency    time.Duration
	credential string

	mu       sync.Mutex
	script   []Step
	fallback Step
	requests []generation.Request
	closed   bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLatency makes every call take at least d.
func WithLatency(d time.Duration) Option {
	return func(a *Adapter) {
		a.latency = d
	}
}

// WithScript queues steps consumed in order, one per call.
func WithScript(steps ...Step) Option {
	return func(a *Adapter) {
		a.script = append(a.script, steps...)
	}
}

// WithFallback sets the step used once the script is exhausted.
// Default: Succeed().
func WithFallback(step Step) Option {
	return func(a *Adapter) {
		a.fallback = step
	}
}

// New creates an adapter with the given capabilities.
func New(caps generation.Capabilities, opts ...Option) *Adapter {
	a := &Adapter{caps: caps}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DefaultCapabilities supports every kind at a flat $0.02 per unit.
func DefaultCapabilities() generation.Capabilities {
	return generation.Capabilities{
		Kinds:   generation.Kinds,
		Pricing: map[string]float64{"": 0.02},
	}
}

// Factory returns a generation.Factory producing adapters built from caps
// and opts. The credential is recorded on the adapter.
func Factory(caps generation.Capabilities, opts ...Option) generation.Factory {
	return func(credential string) (generation.Adapter, error) {
		a := New(caps, opts...)
		a.credential = credential
		return a, nil
	}
}

// Capabilities returns the configured capabilities.
func (a *Adapter) Capabilities() generation.Capabilities {
	return a.caps
}

// Perform runs the next scripted step.
func (a *Adapter) Perform(ctx context.Context, req generation.Request) (*generation.Result, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req.Clone())
	step := a.fallback
	if len(a.script) > 0 {
		step = a.script[0]
		a.script = a.script[1:]
	}
	a.mu.Unlock()

	if d := a.latency + step.Delay; d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if step.Err != nil {
		return nil, step.Err
	}
	if step.Unsuccessful != "" {
		return &generation.Result{Success: false, Error: step.Unsuccessful}, nil
	}

	res := &generation.Result{
		Success: true,
		Model:   req.Model,
		Metadata: map[string]any{
			"url": fmt.Sprintf("mock://%s/%s", req.Kind, req.ID),
		},
	}
	switch {
	case step.Cost != nil:
		res.Cost = generation.Amount(*step.Cost)
	case !step.NoCost:
		res.Cost = generation.Amount(budget.EstimateCost(req, a.caps).Amount)
	}
	return res, nil
}

// Push appends steps to the script.
func (a *Adapter) Push(steps ...Step) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.script = append(a.script, steps...)
}

// Calls returns the number of Perform calls so far.
func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

// Requests returns copies of the requests seen so far.
func (a *Adapter) Requests() []generation.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]generation.Request, len(a.requests))
	for i, r := range a.requests {
		out[i] = r.Clone()
	}
	return out
}

// Credential returns the credential the adapter was built with.
func (a *Adapter) Credential() string {
	return a.credential
}

// Close marks the adapter closed.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// Closed reports whether Close was called.
func (a *Adapter) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

var _ generation.Adapter = (*Adapter)(nil)
