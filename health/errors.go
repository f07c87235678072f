package health

import "errors"

var (
	// ErrCheckTimeout indicates a health check timed out.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrProviderUnavailable indicates a provider's circuit is open.
	ErrProviderUnavailable = errors.New("health: provider unavailable")

	// ErrBudgetExhausted indicates spend reached the global ceiling.
	ErrBudgetExhausted = errors.New("health: budget exhausted")
)
