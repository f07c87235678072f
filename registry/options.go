package registry

import (
	"time"

	"github.com/jonwraymond/genops/budget"
	"github.com/jonwraymond/genops/observe"
	"github.com/jonwraymond/genops/resilience"
	"github.com/jonwraymond/genops/secret"
)

// Config configures a Registry. Zero values select defaults.
type Config struct {
	// Circuit is the breaker configuration applied to every provider.
	// OnStateChange and Now are set by the registry.
	Circuit resilience.CircuitBreakerConfig

	// Retry is the default retry policy. RetryIf, Extended and RetryAfter
	// default to the generation error taxonomy.
	Retry resilience.RetryConfig

	// BudgetCeiling is the global spend ceiling in USD. Zero means none.
	BudgetCeiling float64

	// Resolver resolves credentials. Default: secret.DefaultResolver().
	Resolver *secret.Resolver

	// Logger receives registry events. Default: observe.NopLogger().
	Logger observe.Logger

	// Metrics records circuit transitions. Default: observe.NopMetrics().
	Metrics observe.Metrics

	// Now is the clock shared by breakers, ledger and stats.
	// Default: time.Now.
	Now func() time.Time
}

// ProviderOption configures one registered provider.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	maxAttempts    int
	ratePerSecond  float64
	burst          int
	maxConcurrent  int
	attemptTimeout time.Duration
	disabled       bool
}

// WithMaxAttempts overrides the retry attempt budget for the provider.
func WithMaxAttempts(n int) ProviderOption {
	return func(c *providerConfig) {
		c.maxAttempts = n
	}
}

// WithRateLimit paces outbound attempts to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) ProviderOption {
	return func(c *providerConfig) {
		c.ratePerSecond = perSecond
		c.burst = burst
	}
}

// WithMaxConcurrent caps in-flight attempts against the provider.
func WithMaxConcurrent(n int) ProviderOption {
	return func(c *providerConfig) {
		c.maxConcurrent = n
	}
}

// WithAttemptTimeout bounds each individual attempt.
func WithAttemptTimeout(d time.Duration) ProviderOption {
	return func(c *providerConfig) {
		c.attemptTimeout = d
	}
}

// WithDisabled registers the provider in the disabled state.
func WithDisabled() ProviderOption {
	return func(c *providerConfig) {
		c.disabled = true
	}
}

func newLedger(cfg Config) *budget.Ledger {
	return budget.NewLedger(budget.LedgerConfig{Ceiling: cfg.BudgetCeiling, Now: cfg.Now})
}
