package orchestrator

import (
	"github.com/jonwraymond/genops/budget"
	"github.com/jonwraymond/genops/generation"
	"github.com/jonwraymond/genops/health"
	"github.com/jonwraymond/genops/registry"
)

// Health returns the provider's availability and metrics. Read-only.
func (o *Orchestrator) Health(name string) (registry.Health, error) {
	return o.registry.Health(name)
}

// BudgetSummary returns cumulative spend by provider, project and day.
func (o *Orchestrator) BudgetSummary() budget.Summary {
	return o.registry.Ledger().Summary()
}

// DisableProvider stops new calls to the provider.
func (o *Orchestrator) DisableProvider(name string) error {
	return o.registry.Disable(name)
}

// EnableProvider re-admits a disabled provider.
func (o *Orchestrator) EnableProvider(name string) error {
	return o.registry.Enable(name)
}

// SetPreferredProvider routes unpinned requests of kind to name.
func (o *Orchestrator) SetPreferredProvider(kind generation.Kind, name string) error {
	return o.registry.SetPreferred(kind, name)
}

// ResetCircuit forces the provider's circuit closed.
func (o *Orchestrator) ResetCircuit(name string) error {
	return o.registry.ResetCircuit(name)
}

// HealthAggregator returns an aggregator with one non-critical checker per
// registered provider and a budget checker.
func (o *Orchestrator) HealthAggregator(config ...health.AggregatorConfig) *health.Aggregator {
	agg := health.NewAggregator(config...)
	for _, name := range o.registry.Names() {
		checker := health.NewProviderChecker(name, o.registry)
		agg.Register(checker.Name(), checker, health.NonCritical())
	}
	checker := health.NewBudgetChecker(o.registry.Ledger(), health.BudgetCheckerConfig{
		WarningThreshold: o.budgetWarning,
	})
	agg.Register(checker.Name(), checker)
	return agg
}
