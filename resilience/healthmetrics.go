package resilience

import "time"

// Health thresholds.
const (
	// MaxLatencySamples bounds the rolling latency window.
	MaxLatencySamples = 100

	// UnhealthyConsecutiveFailures marks a provider unhealthy on its own.
	UnhealthyConsecutiveFailures = 5

	// MinRequestsForFailureRate is the sample size before the failure rate counts.
	MinRequestsForFailureRate = 10

	// MaxHealthyFailureRate is the highest failure rate still considered healthy.
	MaxHealthyFailureRate = 0.5

	// MaxHealthyLatency is the highest average latency still considered healthy.
	MaxHealthyLatency = 30 * time.Second
)

// HealthMetrics is a rolling record of call outcomes for one provider.
//
// HealthMetrics is not safe for concurrent use; the CircuitBreaker that owns
// it serializes access. The zero value is ready to use.
type HealthMetrics struct {
	TotalRequests        int
	FailedRequests       int
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastSuccess          time.Time
	LastFailure          time.Time

	latencies  [MaxLatencySamples]time.Duration
	next       int
	samples    int
	latencySum time.Duration

	now func() time.Time
}

// RecordSuccess records a successful call and its latency.
func (m *HealthMetrics) RecordSuccess(latency time.Duration) {
	m.TotalRequests++
	m.ConsecutiveSuccesses++
	m.ConsecutiveFailures = 0
	m.LastSuccess = m.clock()

	if latency < 0 {
		latency = 0
	}
	if m.samples == MaxLatencySamples {
		m.latencySum -= m.latencies[m.next]
	} else {
		m.samples++
	}
	m.latencies[m.next] = latency
	m.latencySum += latency
	m.next = (m.next + 1) % MaxLatencySamples
}

// RecordFailure records a failed call.
func (m *HealthMetrics) RecordFailure() {
	m.TotalRequests++
	m.FailedRequests++
	m.ConsecutiveFailures++
	m.ConsecutiveSuccesses = 0
	m.LastFailure = m.clock()
}

// ResetFailureStreak clears the consecutive-failure count.
func (m *HealthMetrics) ResetFailureStreak() {
	m.ConsecutiveFailures = 0
}

// FailureRate returns failed/total, or 0 with no requests.
func (m *HealthMetrics) FailureRate() float64 {
	if m.TotalRequests == 0 {
		return 0
	}
	return float64(m.FailedRequests) / float64(m.TotalRequests)
}

// AverageLatency returns the mean of the retained latency samples.
func (m *HealthMetrics) AverageLatency() time.Duration {
	if m.samples == 0 {
		return 0
	}
	return m.latencySum / time.Duration(m.samples)
}

// LatencySamples returns how many latencies are retained.
func (m *HealthMetrics) LatencySamples() int {
	return m.samples
}

// IsHealthy derives the health verdict:
// no requests is healthy; a streak of 5 failures, a failure rate above 50%
// over at least 10 requests, or an average latency above 30s is unhealthy.
func (m *HealthMetrics) IsHealthy() bool {
	if m.TotalRequests == 0 {
		return true
	}
	if m.ConsecutiveFailures >= UnhealthyConsecutiveFailures {
		return false
	}
	if m.TotalRequests >= MinRequestsForFailureRate && m.FailureRate() > MaxHealthyFailureRate {
		return false
	}
	if m.AverageLatency() > MaxHealthyLatency {
		return false
	}
	return true
}

// Snapshot returns a copy of the counters and derived values.
func (m *HealthMetrics) Snapshot() HealthSnapshot {
	return HealthSnapshot{
		TotalRequests:        m.TotalRequests,
		FailedRequests:       m.FailedRequests,
		ConsecutiveFailures:  m.ConsecutiveFailures,
		ConsecutiveSuccesses: m.ConsecutiveSuccesses,
		LastSuccess:          m.LastSuccess,
		LastFailure:          m.LastFailure,
		AverageLatency:       m.AverageLatency(),
		LatencySamples:       m.samples,
		FailureRate:          m.FailureRate(),
		Healthy:              m.IsHealthy(),
	}
}

func (m *HealthMetrics) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

// HealthSnapshot is a point-in-time copy of HealthMetrics.
type HealthSnapshot struct {
	TotalRequests        int           `json:"total_requests"`
	FailedRequests       int           `json:"failed_requests"`
	ConsecutiveFailures  int           `json:"consecutive_failures"`
	ConsecutiveSuccesses int           `json:"consecutive_successes"`
	LastSuccess          time.Time     `json:"last_success,omitzero"`
	LastFailure          time.Time     `json:"last_failure,omitzero"`
	AverageLatency       time.Duration `json:"average_latency"`
	LatencySamples       int           `json:"latency_samples"`
	FailureRate          float64       `json:"failure_rate"`
	Healthy              bool          `json:"healthy"`
}
