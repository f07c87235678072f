package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func staticChecker(name string, status Status) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) Result {
		switch status {
		case StatusDegraded:
			return Degraded(name)
		case StatusUnhealthy:
			return Unhealthy(name, errors.New(name))
		default:
			return Healthy(name)
		}
	})
}

func TestNewAggregator_Defaults(t *testing.T) {
	agg := NewAggregator()
	if agg.config.Timeout != 10*time.Second {
		t.Errorf("Default timeout = %v, want 10s", agg.config.Timeout)
	}
	if agg.config.Sequential {
		t.Error("Default should run checks concurrently")
	}
}

func TestAggregator_RegisterOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Register("b", staticChecker("b", StatusHealthy))
	agg.Register("a", staticChecker("a", StatusHealthy))
	agg.Register("b", staticChecker("b", StatusDegraded))

	names := agg.CheckerNames()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("CheckerNames() = %v, want [b a]", names)
	}

	agg.Unregister("b")
	if names := agg.CheckerNames(); len(names) != 1 || names[0] != "a" {
		t.Errorf("CheckerNames() after Unregister = %v, want [a]", names)
	}
}

func TestAggregator_Check(t *testing.T) {
	agg := NewAggregator()
	agg.Register("test", staticChecker("test", StatusHealthy))

	result, err := agg.Check(context.Background(), "test")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != StatusHealthy {
		t.Errorf("Result.Status = %v, want StatusHealthy", result.Status)
	}

	if _, err := agg.Check(context.Background(), "missing"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check(missing) error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_Report(t *testing.T) {
	tests := []struct {
		name     string
		register func(agg *Aggregator)
		want     Status
	}{
		{
			name:     "empty is healthy",
			register: func(agg *Aggregator) {},
			want:     StatusHealthy,
		},
		{
			name: "worst status wins",
			register: func(agg *Aggregator) {
				agg.Register("a", staticChecker("a", StatusHealthy))
				agg.Register("b", staticChecker("b", StatusDegraded))
				agg.Register("c", staticChecker("c", StatusUnhealthy))
			},
			want: StatusUnhealthy,
		},
		{
			name: "non-critical unhealthy only degrades",
			register: func(agg *Aggregator) {
				agg.Register("budget", staticChecker("budget", StatusHealthy))
				agg.Register("provider:alpha", staticChecker("provider:alpha", StatusUnhealthy), NonCritical())
			},
			want: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, sequential := range []bool{false, true} {
				agg := NewAggregator(AggregatorConfig{Sequential: sequential})
				tt.register(agg)

				report := agg.Report(context.Background())
				if report.Status != tt.want {
					t.Errorf("Report().Status = %v, want %v (sequential=%v)", report.Status, tt.want, sequential)
				}
				if len(report.Results) != len(agg.CheckerNames()) {
					t.Errorf("got %d results, want %d", len(report.Results), len(agg.CheckerNames()))
				}
			}
		})
	}
}

func TestAggregator_CheckTimeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	agg.Register("slow", NewCheckerFunc("slow", func(ctx context.Context) Result {
		time.Sleep(time.Second)
		return Healthy("late")
	}))

	results := agg.CheckAll(context.Background())
	r := results["slow"]
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckTimeout) {
		t.Errorf("slow result = %v/%v, want unhealthy/ErrCheckTimeout", r.Status, r.Error)
	}
}

func TestOverallStatus(t *testing.T) {
	results := map[string]Result{
		"a": Healthy("ok"),
		"b": Degraded("slow"),
	}
	if got := OverallStatus(results); got != StatusDegraded {
		t.Errorf("OverallStatus() = %v, want StatusDegraded", got)
	}
	if got := OverallStatus(nil); got != StatusHealthy {
		t.Errorf("OverallStatus(nil) = %v, want StatusHealthy", got)
	}
}
