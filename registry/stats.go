package registry

import (
	"time"

	"github.com/jonwraymond/genops/resilience"
)

// Stats are aggregate call statistics for one provider.
type Stats struct {
	Requests       int64         `json:"requests"`
	Successes      int64         `json:"successes"`
	Failures       int64         `json:"failures"`
	TotalCost      float64       `json:"total_cost"`
	AverageCost    float64       `json:"average_cost"`
	AverageLatency time.Duration `json:"average_latency"`
	LastUsed       time.Time     `json:"last_used,omitzero"`
}

type stats struct {
	requests  int64
	successes int64
	failures  int64
	cost      float64
	latency   time.Duration
	lastUsed  time.Time
}

// Call describes the outcome of one orchestrated call for stats purposes.
type Call struct {
	Success bool
	Cost    float64
	Latency time.Duration
}

// RecordCall folds one finished call into the provider's statistics.
func (r *Registry) RecordCall(name string, call Call) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}
	now := r.config.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	s := &e.stats
	s.requests++
	if call.Success {
		s.successes++
		s.cost += call.Cost
	} else {
		s.failures++
	}
	s.latency += call.Latency
	s.lastUsed = now
	return nil
}

// Stats returns a snapshot of the provider's statistics. Average cost is
// taken over successful calls; average latency over all calls.
func (r *Registry) Stats(name string) (Stats, error) {
	e, err := r.lookup(name)
	if err != nil {
		return Stats{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.snapshot(), nil
}

func (s stats) snapshot() Stats {
	out := Stats{
		Requests:  s.requests,
		Successes: s.successes,
		Failures:  s.failures,
		TotalCost: s.cost,
		LastUsed:  s.lastUsed,
	}
	if s.successes > 0 {
		out.AverageCost = s.cost / float64(s.successes)
	}
	if s.requests > 0 {
		out.AverageLatency = s.latency / time.Duration(s.requests)
	}
	return out
}

// Health is the diagnostic view of one provider.
type Health struct {
	Provider string                    `json:"provider"`
	Status   resilience.Availability   `json:"status"`
	State    resilience.State          `json:"state"`
	Disabled bool                      `json:"disabled"`
	Metrics  resilience.HealthSnapshot `json:"metrics"`
	Circuit  CircuitInfo               `json:"circuit"`
	Stats    Stats                     `json:"stats"`
}

// CircuitInfo summarizes breaker configuration and history.
type CircuitInfo struct {
	LastTransition   time.Time     `json:"last_transition,omitzero"`
	Transitions      int           `json:"transitions"`
	FailureThreshold int           `json:"failure_threshold"`
	SuccessThreshold int           `json:"success_threshold"`
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`
}

// Health returns the provider's status and metrics. It never changes
// breaker state.
func (r *Registry) Health(name string) (Health, error) {
	e, err := r.lookup(name)
	if err != nil {
		return Health{}, err
	}
	m := e.breaker.Metrics()

	e.mu.Lock()
	h := Health{
		Provider: name,
		Status:   m.Availability,
		State:    m.State,
		Disabled: e.disabled,
		Metrics:  m.Health,
		Circuit: CircuitInfo{
			LastTransition:   m.LastTransition,
			Transitions:      m.Transitions,
			FailureThreshold: m.FailureThreshold,
			SuccessThreshold: m.SuccessThreshold,
			RecoveryTimeout:  m.RecoveryTimeout,
		},
		Stats: e.stats.snapshot(),
	}
	e.mu.Unlock()
	return h, nil
}
