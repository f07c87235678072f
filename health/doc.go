// Package health reports the health of generation providers and the spend
// budget.
//
// A Checker reports one component's Status: Healthy, Degraded or Unhealthy.
// ProviderChecker maps a provider's circuit availability onto a Status and
// BudgetChecker compares cumulative spend against the global ceiling. An
// Aggregator runs checkers concurrently under a timeout and folds their
// results into an overall status; checkers registered with NonCritical can
// only degrade the overall status, never fail it.
//
// # HTTP Endpoints
//
// RegisterHandlers mounts three read-only endpoints:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//	// GET /healthz  liveness, always 200
//	// GET /readyz   200 OK/DEGRADED, 503 UNHEALTHY
//	// GET /health   JSON report of every check
package health
