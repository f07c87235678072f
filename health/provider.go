package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/genops/registry"
	"github.com/jonwraymond/genops/resilience"
)

// ProviderSource reports provider health. *registry.Registry implements it.
type ProviderSource interface {
	Health(name string) (registry.Health, error)
}

// ProviderChecker reports one provider's circuit availability.
type ProviderChecker struct {
	name   string
	source ProviderSource
}

// NewProviderChecker creates a checker for the named provider.
func NewProviderChecker(name string, source ProviderSource) *ProviderChecker {
	return &ProviderChecker{name: name, source: source}
}

// Name returns "provider:<name>".
func (c *ProviderChecker) Name() string {
	return "provider:" + c.name
}

// Check maps the provider's availability onto a Status. A disabled
// provider is reported degraded.
func (c *ProviderChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	h, err := c.source.Health(c.name)
	if err != nil {
		return Unhealthy("provider lookup failed", err)
	}

	details := map[string]any{
		"state":                h.State.String(),
		"requests":             h.Metrics.TotalRequests,
		"failure_rate":         h.Metrics.FailureRate,
		"consecutive_failures": h.Metrics.ConsecutiveFailures,
		"average_latency":      h.Metrics.AverageLatency.String(),
		"disabled":             h.Disabled,
	}

	if h.Disabled {
		return Degraded("provider disabled").WithDetails(details)
	}
	switch h.Status {
	case resilience.Available:
		return Healthy("provider available").WithDetails(details)
	case resilience.Degraded:
		return Degraded(fmt.Sprintf("provider degraded (circuit %s)", h.State)).WithDetails(details)
	default:
		return Unhealthy("circuit open", ErrProviderUnavailable).WithDetails(details)
	}
}

var _ Checker = (*ProviderChecker)(nil)
