package config

import (
	"github.com/jonwraymond/genops/registry"
	"github.com/jonwraymond/genops/resilience"
)

// RegistryConfig maps the circuit, retry and budget sections onto a
// registry configuration. Logger, metrics and resolver are left to the
// caller.
func (c *Config) RegistryConfig() registry.Config {
	jitter := c.Retry.Jitter
	if jitter == 0 {
		jitter = -1
	}
	return registry.Config{
		Circuit: resilience.CircuitBreakerConfig{
			FailureThreshold: c.Circuit.FailureThreshold,
			RecoveryTimeout:  c.Circuit.RecoveryTimeout,
			SuccessThreshold: c.Circuit.SuccessThreshold,
		},
		Retry: resilience.RetryConfig{
			MaxAttempts:  c.Retry.MaxAttempts,
			InitialDelay: c.Retry.InitialDelay,
			MaxDelay:     c.Retry.MaxDelay,
			Multiplier:   c.Retry.Multiplier,
			Jitter:       jitter,
		},
		BudgetCeiling: c.Budget.Ceiling,
	}
}

// Options returns the registry options for the provider.
func (p ProviderConfig) Options() []registry.ProviderOption {
	var opts []registry.ProviderOption
	if p.MaxAttempts > 0 {
		opts = append(opts, registry.WithMaxAttempts(p.MaxAttempts))
	}
	if p.RatePerSecond > 0 {
		opts = append(opts, registry.WithRateLimit(p.RatePerSecond, p.Burst))
	}
	if p.MaxConcurrent > 0 {
		opts = append(opts, registry.WithMaxConcurrent(p.MaxConcurrent))
	}
	if p.AttemptTimeout > 0 {
		opts = append(opts, registry.WithAttemptTimeout(p.AttemptTimeout))
	}
	if p.Disabled {
		opts = append(opts, registry.WithDisabled())
	}
	return opts
}
