package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/genops/generation"
)

// GenerateFunc is one orchestrated generation call as seen by Middleware.
type GenerateFunc func(ctx context.Context, call CallMeta) (Outcome, error)

// Middleware wraps generation calls with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe GenerateFunc.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap wraps fn with a span, metrics and one log entry per call.
// Caller-side failures (validation, budget, open circuit, cancellation)
// log at warn; provider failures log at error.
func (m *Middleware) Wrap(fn GenerateFunc) GenerateFunc {
	return func(ctx context.Context, call CallMeta) (Outcome, error) {
		ctx, span := m.tracer.StartSpan(ctx, call)
		start := time.Now()

		outcome, err := fn(ctx, call)

		duration := time.Since(start)
		m.tracer.EndSpan(span, outcome, err)
		m.metrics.RecordGeneration(ctx, call, duration, outcome, err)

		logger := m.logger.WithCall(call)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
			{Key: "attempts", Value: outcome.Attempts},
		}

		if err == nil {
			fields = append(fields, Field{Key: "cost", Value: outcome.Cost})
			logger.Info(ctx, "generation completed", fields...)
			return outcome, nil
		}

		class := generation.ClassOf(err)
		fields = append(fields,
			Field{Key: "error", Value: err.Error()},
			Field{Key: AttrErrorClass, Value: class.String()},
		)
		if providerFault(class) {
			logger.Error(ctx, "generation failed", fields...)
		} else {
			logger.Warn(ctx, "generation failed", fields...)
		}
		return outcome, err
	}
}

func providerFault(c generation.Class) bool {
	switch c {
	case generation.ClassTransient, generation.ClassRateLimit,
		generation.ClassAuthentication, generation.ClassUnknown:
		return true
	default:
		return false
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
