package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/jonwraymond/genops/generation"
	"github.com/jonwraymond/genops/observe"
)

// DefaultPriceKey is the pricing entry applied to models without their own.
const DefaultPriceKey = "default"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete genops configuration.
type Config struct {
	LogLevel  string                    `mapstructure:"log_level" yaml:"log_level"`
	Budget    BudgetConfig              `mapstructure:"budget" yaml:"budget"`
	Circuit   CircuitConfig             `mapstructure:"circuit" yaml:"circuit"`
	Retry     RetryConfig               `mapstructure:"retry" yaml:"retry"`
	Providers map[string]ProviderConfig `mapstructure:"providers" yaml:"providers"`
	Preferred map[string]string         `mapstructure:"preferred" yaml:"preferred,omitempty"`
	Observe   observe.Config            `mapstructure:"observe" yaml:"observe"`
	Server    ServerConfig              `mapstructure:"server" yaml:"server"`
}

// BudgetConfig holds spend limits.
type BudgetConfig struct {
	// Ceiling is the global spend ceiling in USD. Zero means none.
	Ceiling float64 `mapstructure:"ceiling" yaml:"ceiling"`

	// WarningThreshold is the fraction of the ceiling at which the budget
	// health check reports degraded.
	WarningThreshold float64 `mapstructure:"warning_threshold" yaml:"warning_threshold"`
}

// CircuitConfig holds circuit breaker settings shared by every provider.
type CircuitConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
}

// RetryConfig holds the default retry policy.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	Jitter       float64       `mapstructure:"jitter"`
}

// ProviderConfig declares one provider.
type ProviderConfig struct {
	// Adapter names the adapter implementation, e.g. "mock".
	Adapter    string `mapstructure:"adapter"`
	Credential string `mapstructure:"credential"`
	Disabled   bool   `mapstructure:"disabled"`

	// Kinds, Models and Pricing describe the provider for adapters that
	// take their capabilities from configuration. The pricing key
	// "default" prices models without their own entry.
	Kinds   []string           `mapstructure:"kinds"`
	Models  []string           `mapstructure:"models"`
	Pricing map[string]float64 `mapstructure:"pricing"`

	MaxAttempts    int           `mapstructure:"max_attempts"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	Burst          int           `mapstructure:"burst"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
}

// ServerConfig configures the HTTP diagnostics server.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Validate checks the configuration. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if !slices.Contains(observe.ValidLogLevels, c.LogLevel) {
		add("unknown log_level %q", c.LogLevel)
	}
	if c.Budget.Ceiling < 0 {
		add("budget.ceiling must not be negative")
	}
	if c.Budget.WarningThreshold < 0 || c.Budget.WarningThreshold >= 1 {
		add("budget.warning_threshold must be in [0, 1)")
	}

	if c.Circuit.FailureThreshold < 0 || c.Circuit.SuccessThreshold < 0 {
		add("circuit thresholds must not be negative")
	}
	if c.Circuit.RecoveryTimeout < 0 {
		add("circuit.recovery_timeout must not be negative")
	}

	if c.Retry.MaxAttempts < 0 {
		add("retry.max_attempts must not be negative")
	}
	if c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < 0 {
		add("retry delays must not be negative")
	}
	if c.Retry.Multiplier < 0 {
		add("retry.multiplier must not be negative")
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter >= 1 {
		add("retry.jitter must be in [0, 1)")
	}

	for _, name := range slices.Sorted(maps.Keys(c.Providers)) {
		p := c.Providers[name]
		if p.Adapter == "" {
			add("providers.%s.adapter is required", name)
		}
		for _, k := range p.Kinds {
			if !generation.Kind(k).Valid() {
				add("providers.%s.kinds: unknown kind %q", name, k)
			}
		}
		for model, price := range p.Pricing {
			if price < 0 {
				add("providers.%s.pricing.%s must not be negative", name, model)
			}
		}
		if p.MaxAttempts < 0 || p.Burst < 0 || p.MaxConcurrent < 0 || p.RatePerSecond < 0 || p.AttemptTimeout < 0 {
			add("providers.%s: limits must not be negative", name)
		}
	}

	for _, kind := range slices.Sorted(maps.Keys(c.Preferred)) {
		name := c.Preferred[kind]
		if !generation.Kind(kind).Valid() {
			add("preferred: unknown kind %q", kind)
		}
		if _, ok := c.Providers[name]; !ok {
			add("preferred.%s: provider %q is not declared", kind, name)
		}
	}

	if err := c.Observe.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: observe: %w", ErrInvalidConfig, err))
	}

	return errors.Join(errs...)
}

// Capabilities builds the provider's capabilities from its declaration.
// Without kinds every kind is supported.
func (p ProviderConfig) Capabilities() generation.Capabilities {
	caps := generation.Capabilities{
		Kinds:  generation.Kinds,
		Models: p.Models,
	}
	if len(p.Pricing) > 0 {
		caps.Pricing = make(map[string]float64, len(p.Pricing))
		for model, price := range p.Pricing {
			if model == DefaultPriceKey {
				model = ""
			}
			caps.Pricing[model] = price
		}
	}
	if len(p.Kinds) > 0 {
		caps.Kinds = make([]generation.Kind, len(p.Kinds))
		for i, k := range p.Kinds {
			caps.Kinds[i] = generation.Kind(k)
		}
	}
	return caps
}
