package observe

import (
	"context"
	"time"
)

// ResolveFunc is the signature of one provider call. query is the
// normalized question text.
type ResolveFunc func(ctx context.Context, meta ProviderMeta, query string) (string, error)

// Middleware wraps provider calls with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ResolveFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and propagated unchanged.
//   - Ownership: answers are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components are replaced with
// no-ops.
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

// Wrap wraps a ResolveFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ResolveFunc) ResolveFunc {
	return func(ctx context.Context, meta ProviderMeta, query string) (string, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		answer, err := fn(ctx, meta, query)

		duration := time.Since(start)
		outcome := OutcomeAnswered
		switch {
		case err != nil:
			outcome = OutcomeError
		case answer == "":
			outcome = OutcomeMiss
		}

		m.tracer.EndSpan(span, outcome, err)
		m.metrics.RecordResolve(ctx, meta, duration, outcome)

		logger := m.logger.WithProvider(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
			{Key: "outcome", Value: outcome.String()},
		}

		switch outcome {
		case OutcomeError:
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Warn(ctx, "provider failed", fields...)
		case OutcomeMiss:
			logger.Debug(ctx, "provider had no answer", fields...)
		default:
			logger.Info(ctx, "provider answered", fields...)
		}

		return answer, err
	}
}

// Metrics returns the metrics sink used by the middleware.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Logger returns the base logger used by the middleware.
func (m *Middleware) Logger() Logger {
	return m.logger
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
