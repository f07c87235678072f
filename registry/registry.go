package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/genops/budget"
	"github.com/jonwraymond/genops/generation"
	"github.com/jonwraymond/genops/observe"
	"github.com/jonwraymond/genops/resilience"
	"github.com/jonwraymond/genops/secret"
)

// Registry maps provider names to lazily constructed adapters and their
// resilience state.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use.
//   - Ownership: the registry owns breakers, executors, the ledger and every
//     adapter it constructs; callers borrow adapters for one call.
//   - Errors: lookups fail with *generation.Error of class UnknownProvider
//     or Disabled.
type Registry struct {
	config   Config
	resolver *secret.Resolver
	logger   observe.Logger
	metrics  observe.Metrics
	ledger   *budget.Ledger
	group    singleflight.Group

	mu        sync.RWMutex
	entries   map[string]*entry
	order     []string
	preferred map[generation.Kind]string
}

type entry struct {
	name     string
	factory  generation.Factory
	breaker  *resilience.CircuitBreaker
	executor *resilience.Executor

	mu         sync.Mutex
	credential string
	adapter    generation.Adapter
	disabled   bool
	stats      stats
}

// New creates an empty registry.
func New(config Config) *Registry {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Resolver == nil {
		config.Resolver = secret.DefaultResolver()
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = observe.NopMetrics()
	}
	if config.Retry.RetryIf == nil {
		config.Retry.RetryIf = generation.ShouldRetry
	}
	if config.Retry.Extended == nil {
		config.Retry.Extended = generation.IsRateLimited
	}
	if config.Retry.RetryAfter == nil {
		config.Retry.RetryAfter = generation.RetryAfter
	}

	return &Registry{
		config:    config,
		resolver:  config.Resolver,
		logger:    config.Logger,
		metrics:   config.Metrics,
		ledger:    newLedger(config),
		entries:   make(map[string]*entry),
		preferred: make(map[generation.Kind]string),
	}
}

// Register adds a provider under name. The adapter is not constructed
// until first use.
func (r *Registry) Register(name string, factory generation.Factory, opts ...ProviderOption) error {
	if name == "" {
		return ErrInvalidName
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, name)
	}

	var pc providerConfig
	for _, opt := range opts {
		opt(&pc)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, name)
	}

	r.entries[name] = &entry{
		name:     name,
		factory:  factory,
		breaker:  r.newBreaker(name),
		executor: r.newExecutor(pc),
		disabled: pc.disabled,
	}
	r.order = append(r.order, name)
	r.logger.Info(context.Background(), "provider registered",
		observe.Field{Key: observe.AttrProvider, Value: name},
		observe.Field{Key: "disabled", Value: pc.disabled},
	)
	return nil
}

func (r *Registry) newBreaker(name string) *resilience.CircuitBreaker {
	cfg := r.config.Circuit
	cfg.Now = r.config.Now
	cfg.OnStateChange = func(from, to resilience.State) {
		ctx := context.Background()
		r.metrics.RecordCircuitTransition(ctx, name, from.String(), to.String())
		fields := []observe.Field{
			{Key: observe.AttrProvider, Value: name},
			{Key: "from", Value: from.String()},
			{Key: "to", Value: to.String()},
		}
		if to == resilience.StateOpen {
			r.logger.Warn(ctx, "circuit opened", fields...)
			return
		}
		r.logger.Info(ctx, "circuit state changed", fields...)
	}
	return resilience.NewCircuitBreaker(cfg)
}

func (r *Registry) newExecutor(pc providerConfig) *resilience.Executor {
	retryCfg := r.config.Retry
	if pc.maxAttempts > 0 {
		retryCfg.MaxAttempts = pc.maxAttempts
	}
	opts := []resilience.ExecutorOption{
		resilience.WithRetry(resilience.NewRetry(retryCfg)),
		resilience.WithTimeout(pc.attemptTimeout),
	}
	if pc.ratePerSecond > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        pc.ratePerSecond,
			Burst:       pc.burst,
			WaitOnLimit: true,
		})))
	}
	if pc.maxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: pc.maxConcurrent,
		})))
	}
	return resilience.NewExecutor(opts...)
}

// SetCredential resolves value (literal, ${VAR} or secretref) and stores it
// as the provider's credential. A constructed adapter is discarded so the
// next use picks up the new credential.
func (r *Registry) SetCredential(ctx context.Context, name, value string) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}
	resolved, err := r.resolver.Resolve(ctx, value)
	if err != nil {
		return fmt.Errorf("resolve credential for %s: %w", name, err)
	}

	e.mu.Lock()
	e.credential = resolved
	old := e.adapter
	e.adapter = nil
	e.mu.Unlock()

	if c, ok := old.(io.Closer); ok {
		_ = c.Close()
	}
	return nil
}

// GetOrCreate returns the provider's adapter, constructing it on first use.
func (r *Registry) GetOrCreate(name string) (generation.Adapter, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if r.isDisabled(e) {
		return nil, generation.Errorf(generation.ClassDisabled, name, "provider is disabled")
	}
	if a := e.current(); a != nil {
		return a, nil
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		if a := e.current(); a != nil {
			return a, nil
		}
		e.mu.Lock()
		credential := e.credential
		e.mu.Unlock()

		a, err := e.factory(credential)
		if err != nil {
			return nil, generation.Classify(name, fmt.Errorf("construct adapter: %w", err))
		}
		if a == nil {
			return nil, generation.NewError(generation.ClassUnknown, name, ErrNilAdapter)
		}

		e.mu.Lock()
		e.adapter = a
		e.mu.Unlock()
		r.logger.Info(context.Background(), "provider adapter constructed",
			observe.Field{Key: observe.AttrProvider, Value: name})
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(generation.Adapter), nil
}

// Breaker returns the provider's circuit breaker.
func (r *Registry) Breaker(name string) (*resilience.CircuitBreaker, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.breaker, nil
}

// Executor returns the provider's per-call resilience pipeline.
func (r *Registry) Executor(name string) (*resilience.Executor, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.executor, nil
}

// Ledger returns the shared budget ledger.
func (r *Registry) Ledger() *budget.Ledger {
	return r.ledger
}

// Names returns provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Disable stops new calls to the provider until Enable is called.
func (r *Registry) Disable(name string) error {
	return r.setDisabled(name, true)
}

// Enable re-admits a disabled provider.
func (r *Registry) Enable(name string) error {
	return r.setDisabled(name, false)
}

func (r *Registry) setDisabled(name string, disabled bool) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.disabled = disabled
	e.mu.Unlock()

	msg := "provider enabled"
	if disabled {
		msg = "provider disabled"
	}
	r.logger.Info(context.Background(), msg, observe.Field{Key: observe.AttrProvider, Value: name})
	return nil
}

// IsDisabled reports whether an operator disabled the provider.
func (r *Registry) IsDisabled(name string) bool {
	e, err := r.lookup(name)
	if err != nil {
		return false
	}
	return r.isDisabled(e)
}

func (r *Registry) isDisabled(e *entry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disabled
}

// SetPreferred makes name the preferred provider for kind. An empty name
// clears the preference.
func (r *Registry) SetPreferred(kind generation.Kind, name string) error {
	if !kind.Valid() {
		return generation.Errorf(generation.ClassValidation, "", "unknown generation kind %q", kind)
	}
	if name != "" {
		if _, err := r.lookup(name); err != nil {
			return err
		}
	}

	r.mu.Lock()
	if name == "" {
		delete(r.preferred, kind)
	} else {
		r.preferred[kind] = name
	}
	r.mu.Unlock()

	r.logger.Info(context.Background(), "preferred provider changed",
		observe.Field{Key: observe.AttrKind, Value: string(kind)},
		observe.Field{Key: observe.AttrProvider, Value: name},
	)
	return nil
}

// Preferred returns the preferred provider for kind, or "".
func (r *Registry) Preferred(kind generation.Kind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.preferred[kind]
}

// ResetCircuit forces the provider's breaker closed and clears its failure
// streak.
func (r *Registry) ResetCircuit(name string) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}
	e.breaker.Reset()
	r.logger.Info(context.Background(), "circuit reset", observe.Field{Key: observe.AttrProvider, Value: name})
	return nil
}

// Close closes every constructed adapter that implements io.Closer and
// discards it. The registry remains usable; adapters are rebuilt on demand.
func (r *Registry) Close() error {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.order))
	for _, name := range r.order {
		entries = append(entries, r.entries[name])
	}
	r.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		e.mu.Lock()
		a := e.adapter
		e.adapter = nil
		e.mu.Unlock()
		if c, ok := a.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", e.name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) lookup(name string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, generation.Errorf(generation.ClassUnknownProvider, name, "no factory registered")
	}
	return e, nil
}

func (e *entry) current() generation.Adapter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.adapter
}
