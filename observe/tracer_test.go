package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return NewTracer(tp.Tracer("test")), rec
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestProviderMeta_SpanName(t *testing.T) {
	meta := ProviderMeta{Name: "duckduckgo"}
	if got, want := meta.SpanName(), "provider.resolve.duckduckgo"; got != want {
		t.Errorf("SpanName() = %q, want %q", got, want)
	}
}

func TestProviderMeta_Validate(t *testing.T) {
	if err := (ProviderMeta{}).Validate(); !errors.Is(err, ErrMissingProviderName) {
		t.Errorf("Validate() = %v, want ErrMissingProviderName", err)
	}
	if err := (ProviderMeta{Name: "github"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	tracer, rec := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), ProviderMeta{
		Name: "weather",
		Host: "api.open-meteo.com",
		Tags: []string{"weather"},
	})
	tracer.EndSpan(span, OutcomeAnswered, nil)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "provider.resolve.weather" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}

	attrs := s.Attributes()
	if v, ok := attrValue(attrs, "provider.host"); !ok || v.AsString() != "api.open-meteo.com" {
		t.Errorf("provider.host = %v", v.AsString())
	}
	if v, ok := attrValue(attrs, "provider.outcome"); !ok || v.AsString() != "answered" {
		t.Errorf("provider.outcome = %v", v.AsString())
	}
	if v, ok := attrValue(attrs, "provider.tags"); !ok || len(v.AsStringSlice()) != 1 {
		t.Errorf("provider.tags = %v", v.AsStringSlice())
	}
}

func TestTracer_ErrorStatus(t *testing.T) {
	tracer, rec := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), ProviderMeta{Name: "crossref"})
	tracer.EndSpan(span, OutcomeError, errors.New("502 bad gateway"))

	s := rec.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "502 bad gateway" {
		t.Errorf("status = %+v", s.Status())
	}
	if v, _ := attrValue(s.Attributes(), "provider.error"); !v.AsBool() {
		t.Error("provider.error = false, want true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected a recorded error event")
	}
}

func TestTracer_ChildOfCallerSpan(t *testing.T) {
	tracer, rec := newRecordingTracer()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	ctx, parent := tp.Tracer("caller").Start(context.Background(), "resolve")
	_, child := tracer.StartSpan(ctx, ProviderMeta{Name: "tvmaze"})
	tracer.EndSpan(child, OutcomeMiss, nil)
	parent.End()

	var childSpan sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		if s.Name() == "provider.resolve.tvmaze" {
			childSpan = s
		}
	}
	if childSpan == nil {
		t.Fatal("child span not recorded")
	}
	if childSpan.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("provider span is not a child of the caller span")
	}
}

func traceSpanValid(ctx context.Context) bool {
	return trace.SpanContextFromContext(ctx).IsValid()
}
