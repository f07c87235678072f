// Package orchestrator is the entry point for generation calls.
//
// Generate resolves a provider, fails fast while its circuit is open,
// validates the request against the provider's capabilities, checks the
// estimated cost against the per-call limit and the global ceiling, and
// runs the adapter through the provider's retry pipeline. The terminal
// outcome updates the circuit breaker, the provider statistics and, on
// success, the budget ledger.
//
// The global ceiling is a soft limit: the pre-flight check and the commit
// are separate steps, so concurrent calls that each pass the check can
// overshoot the ceiling by up to the sum of their estimates.
//
// Basic usage:
//
//	reg := registry.New(registry.Config{BudgetCeiling: 50})
//	_ = reg.Register("alpha", alphaFactory)
//	orch := orchestrator.New(reg)
//
//	res, err := orch.Generate(ctx, generation.Request{
//	    Kind:        generation.KindImage,
//	    Prompt:      "a lighthouse at dusk",
//	    BudgetLimit: 0.10,
//	})
package orchestrator
