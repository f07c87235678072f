package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/genops/budget"
)

// BudgetSource reports ledger state. *budget.Ledger implements it.
type BudgetSource interface {
	Summary() budget.Summary
}

// BudgetCheckerConfig configures the budget health checker.
type BudgetCheckerConfig struct {
	// WarningThreshold is the fraction of the ceiling that triggers
	// degraded status. Value should be between 0 and 1. Default: 0.8
	WarningThreshold float64
}

// BudgetChecker compares cumulative spend against the global ceiling.
type BudgetChecker struct {
	config BudgetCheckerConfig
	source BudgetSource
}

// NewBudgetChecker creates a new budget health checker.
func NewBudgetChecker(source BudgetSource, config BudgetCheckerConfig) *BudgetChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	return &BudgetChecker{config: config, source: source}
}

// Name returns "budget".
func (b *BudgetChecker) Name() string {
	return "budget"
}

// Check reports unhealthy once spend reaches the ceiling and degraded once
// it crosses the warning threshold. Without a ceiling it is always healthy.
func (b *BudgetChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	s := b.source.Summary()
	details := map[string]any{
		"total_spent": s.TotalSpent,
		"commits":     s.Commits,
	}
	if s.Remaining == nil {
		return Healthy("no budget ceiling").WithDetails(details)
	}

	usage := s.TotalSpent / s.Ceiling
	details["ceiling"] = s.Ceiling
	details["remaining"] = *s.Remaining
	details["usage_percent"] = usage * 100

	switch {
	case *s.Remaining <= 0:
		return Unhealthy(fmt.Sprintf("budget exhausted: $%.2f of $%.2f", s.TotalSpent, s.Ceiling), ErrBudgetExhausted).
			WithDetails(details)
	case usage >= b.config.WarningThreshold:
		return Degraded(fmt.Sprintf("budget usage high: %.1f%%", usage*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("budget usage normal: %.1f%%", usage*100)).WithDetails(details)
	}
}

var _ Checker = (*BudgetChecker)(nil)
