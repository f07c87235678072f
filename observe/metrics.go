package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/genops/generation"
)

// Instrument names.
const (
	MetricGenerationTotal    = "generation.total"
	MetricGenerationErrors   = "generation.errors"
	MetricGenerationDuration = "generation.duration_ms"
	MetricGenerationCost     = "generation.cost"
	MetricGenerationAttempts = "generation.attempts"
	MetricCircuitTransitions = "circuit.transitions"
)

// Outcome is what a completed call reports for telemetry.
type Outcome struct {
	// Attempts is the number of provider calls made, zero when the call
	// failed before reaching the provider.
	Attempts int

	// Cost is the amount committed to the ledger.
	Cost float64
}

// Metrics records generation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordGeneration records one orchestrated call.
	RecordGeneration(ctx context.Context, meta CallMeta, duration time.Duration, outcome Outcome, err error)

	// RecordCircuitTransition records a circuit breaker state change.
	RecordCircuitTransition(ctx context.Context, provider, from, to string)
}

type metricsImpl struct {
	totalCount      metric.Int64Counter
	errorCount      metric.Int64Counter
	durationHist    metric.Float64Histogram
	costCounter     metric.Float64Counter
	attemptsHist    metric.Int64Histogram
	transitionCount metric.Int64Counter
}

// NewMetrics creates the generation instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		MetricGenerationTotal,
		metric.WithDescription("Total number of generation calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricGenerationErrors,
		metric.WithDescription("Total number of failed generation calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricGenerationDuration,
		metric.WithDescription("Generation wall time in milliseconds, including retries"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	costCounter, err := meter.Float64Counter(
		MetricGenerationCost,
		metric.WithDescription("Spend committed to the budget ledger"),
		metric.WithUnit("USD"),
	)
	if err != nil {
		return nil, err
	}

	attemptsHist, err := meter.Int64Histogram(
		MetricGenerationAttempts,
		metric.WithDescription("Provider attempts per generation call"),
		metric.WithUnit("{attempt}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 6, 10),
	)
	if err != nil {
		return nil, err
	}

	transitionCount, err := meter.Int64Counter(
		MetricCircuitTransitions,
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:      totalCount,
		errorCount:      errorCount,
		durationHist:    durationHist,
		costCounter:     costCounter,
		attemptsHist:    attemptsHist,
		transitionCount: transitionCount,
	}, nil
}

func (m *metricsImpl) RecordGeneration(ctx context.Context, meta CallMeta, duration time.Duration, outcome Outcome, err error) {
	attrs := meta.metricAttributes()
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)

	if err != nil {
		class := generation.ClassOf(err).String()
		m.errorCount.Add(ctx, 1, metric.WithAttributes(
			append(attrs, attribute.String(AttrErrorClass, class))...,
		))
	}

	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
	m.attemptsHist.Record(ctx, int64(outcome.Attempts), opt)

	if outcome.Cost > 0 {
		m.costCounter.Add(ctx, outcome.Cost, opt)
	}
}

func (m *metricsImpl) RecordCircuitTransition(ctx context.Context, provider, from, to string) {
	m.transitionCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String("circuit.from", from),
		attribute.String("circuit.to", to),
	))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) RecordGeneration(context.Context, CallMeta, time.Duration, Outcome, error) {}
func (nopMetrics) RecordCircuitTransition(context.Context, string, string, string)           {}
