package registry

import (
	"context"

	"github.com/jonwraymond/genops/budget"
	"github.com/jonwraymond/genops/generation"
	"github.com/jonwraymond/genops/observe"
)

// Select chooses a provider for req.
//
// A preferred provider for req.Kind is returned as long as it is not
// disabled, even when its circuit is open. Otherwise providers are
// considered in registration order; a candidate must be enabled, support
// the kind and model, and have a breaker that admits calls. Without a
// budget limit the first candidate wins. With one, the cheapest candidate
// whose estimate fits the limit wins, ties going to the earlier one.
//
// Select may construct adapters to read their capabilities, and may move
// an open breaker whose recovery timeout elapsed to half-open.
func (r *Registry) Select(ctx context.Context, req generation.Request) (string, error) {
	if name := r.Preferred(req.Kind); name != "" && !r.IsDisabled(name) {
		return name, nil
	}

	var (
		best      string
		bestCost  float64
		available bool
	)
	for _, name := range r.Names() {
		if r.IsDisabled(name) {
			continue
		}
		adapter, err := r.GetOrCreate(name)
		if err != nil {
			r.logger.Warn(ctx, "provider skipped during selection",
				observe.Field{Key: observe.AttrProvider, Value: name},
				observe.Field{Key: "error", Value: err},
			)
			continue
		}
		caps := adapter.Capabilities()
		if !caps.SupportsKind(req.Kind) || !caps.SupportsModel(req.Model) {
			continue
		}
		breaker, err := r.Breaker(name)
		if err != nil || !breaker.CanExecute() {
			continue
		}
		available = true
		if !req.HasBudgetLimit() {
			return name, nil
		}

		est := budget.EstimateCost(req, caps)
		if est.Amount > req.BudgetLimit {
			continue
		}
		if best == "" || est.Amount < bestCost {
			best, bestCost = name, est.Amount
		}
	}

	if best != "" {
		return best, nil
	}
	if available {
		return "", generation.Errorf(generation.ClassBudgetExceeded, "",
			"no provider fits the budget limit of $%.4f", req.BudgetLimit)
	}
	return "", generation.Errorf(generation.ClassNoProviderAvailable, "",
		"no available provider supports kind %q", req.Kind)
}
