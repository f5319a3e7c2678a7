package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ProviderMeta describes a data provider for telemetry purposes.
type ProviderMeta struct {
	Name string   // Provider name (required), e.g. "wikipedia"
	Host string   // Primary upstream host (optional)
	Tags []string // Intent tags the provider serves (optional)
}

// SpanName returns the deterministic span name for this provider.
// Format: provider.resolve.<name>
func (m ProviderMeta) SpanName() string {
	return "provider.resolve." + m.Name
}

// Validate reports whether the metadata is usable.
func (m ProviderMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingProviderName
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with provider-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan returns a context carrying the new span.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for one provider call.
	StartSpan(ctx context.Context, meta ProviderMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome and any error.
	EndSpan(span trace.Span, outcome Outcome, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with provider metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta ProviderMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("provider.name", meta.Name),
		attribute.Bool("provider.error", false),
	}
	if meta.Host != "" {
		attrs = append(attrs, attribute.String("provider.host", meta.Host))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("provider.tags", meta.Tags))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, outcome Outcome, err error) {
	span.SetAttributes(attribute.String("provider.outcome", outcome.String()))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("provider.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a tracer that records nothing.
func NopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ProviderMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, outcome Outcome, err error) {
	span.End()
}
