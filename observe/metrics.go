package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome classifies one provider call.
type Outcome int

const (
	// OutcomeAnswered means the provider produced a non-empty answer.
	OutcomeAnswered Outcome = iota
	// OutcomeMiss means the provider had nothing to say.
	OutcomeMiss
	// OutcomeError means the provider failed.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswered:
		return "answered"
	case OutcomeMiss:
		return "miss"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Metrics records resolution metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordResolve records one provider call.
	RecordResolve(ctx context.Context, meta ProviderMeta, duration time.Duration, outcome Outcome)

	// RecordCacheLookup records one response-cache lookup.
	RecordCacheLookup(ctx context.Context, hit bool)

	// RecordRetry records one transport retry. reason is "rate_limited",
	// "server_error" or "transport".
	RecordRetry(ctx context.Context, host, reason string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	totalCount   metric.Int64Counter
	missCount    metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheLookups metric.Int64Counter
	retryCount   metric.Int64Counter
}

// NewMetrics creates the resolution instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"provider.resolve.total",
		metric.WithDescription("Total number of provider calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	missCount, err := meter.Int64Counter(
		"provider.resolve.misses",
		metric.WithDescription("Provider calls that produced no answer"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"provider.resolve.errors",
		metric.WithDescription("Provider calls that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"provider.resolve.duration_ms",
		metric.WithDescription("Provider call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"cache.lookup.total",
		metric.WithDescription("Response cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := meter.Int64Counter(
		"transport.retry.total",
		metric.WithDescription("Outbound request retries"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		missCount:    missCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		cacheLookups: cacheLookups,
		retryCount:   retryCount,
	}, nil
}

// RecordResolve records metrics for a provider call.
func (m *metricsImpl) RecordResolve(ctx context.Context, meta ProviderMeta, duration time.Duration, outcome Outcome) {
	opt := metric.WithAttributes(attribute.String("provider.name", meta.Name))

	m.totalCount.Add(ctx, 1, opt)
	switch outcome {
	case OutcomeMiss:
		m.missCount.Add(ctx, 1, opt)
	case OutcomeError:
		m.errorCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordCacheLookup records a cache hit or miss.
func (m *metricsImpl) RecordCacheLookup(ctx context.Context, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}

// RecordRetry records a transport retry.
func (m *metricsImpl) RecordRetry(ctx context.Context, host, reason string) {
	m.retryCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("host", host),
		attribute.String("reason", reason),
	))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordResolve(context.Context, ProviderMeta, time.Duration, Outcome) {}
func (noopMetrics) RecordCacheLookup(context.Context, bool)                             {}
func (noopMetrics) RecordRetry(context.Context, string, string)                         {}
