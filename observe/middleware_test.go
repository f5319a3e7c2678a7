package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type middlewareFixture struct {
	mw     *Middleware
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
}

func newMiddlewareFixture(t *testing.T) middlewareFixture {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	metrics, reader := newTestMetrics(t)

	var logs bytes.Buffer
	mw := NewMiddleware(NewTracer(tp.Tracer("test")), metrics, NewLoggerWithWriter("debug", &logs))

	return middlewareFixture{mw: mw, spans: spans, reader: reader, logs: &logs}
}

func TestMiddleware_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		err       error
		wantLevel string
		wantMsg   string
		counter   string
	}{
		{"answered", "Bitcoin price: $1", nil, "info", "provider answered", ""},
		{"miss", "", nil, "debug", "provider had no answer", "provider.resolve.misses"},
		{"error", "", errors.New("dial tcp: refused"), "warn", "provider failed", "provider.resolve.errors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMiddlewareFixture(t)
			meta := ProviderMeta{Name: "crypto"}

			var gotQuery string
			wrapped := f.mw.Wrap(func(ctx context.Context, m ProviderMeta, q string) (string, error) {
				gotQuery = q
				return tt.answer, tt.err
			})

			answer, err := wrapped(context.Background(), meta, "btc price")
			if answer != tt.answer || err != tt.err {
				t.Errorf("wrapped() = %q, %v; want %q, %v", answer, err, tt.answer, tt.err)
			}
			if gotQuery != "btc price" {
				t.Errorf("inner query = %q", gotQuery)
			}

			if n := len(f.spans.Ended()); n != 1 {
				t.Errorf("spans = %d, want 1", n)
			}

			rm := collect(t, f.reader)
			if got := sumValue(rm, "provider.resolve.total"); got != 1 {
				t.Errorf("provider.resolve.total = %d, want 1", got)
			}
			if tt.counter != "" {
				if got := sumValue(rm, tt.counter); got != 1 {
					t.Errorf("%s = %d, want 1", tt.counter, got)
				}
			}

			entries := decodeLines(t, f.logs)
			if len(entries) != 1 {
				t.Fatalf("log entries = %d, want 1", len(entries))
			}
			if entries[0]["level"] != tt.wantLevel || entries[0]["msg"] != tt.wantMsg {
				t.Errorf("log entry = %v", entries[0])
			}
			if entries[0]["provider.name"] != "crypto" {
				t.Errorf("provider.name = %v", entries[0]["provider.name"])
			}
			if tt.err != nil && entries[0]["error"] != tt.err.Error() {
				t.Errorf("error field = %v", entries[0]["error"])
			}
		})
	}
}

func TestMiddleware_PropagatesSpanContext(t *testing.T) {
	f := newMiddlewareFixture(t)

	wrapped := f.mw.Wrap(func(ctx context.Context, m ProviderMeta, q string) (string, error) {
		if !traceSpanValid(ctx) {
			t.Error("inner function did not receive the provider span")
		}
		return "ok", nil
	})
	_, _ = wrapped(context.Background(), ProviderMeta{Name: "github"}, "q")
}

func TestNewMiddleware_NilComponents(t *testing.T) {
	mw := NewMiddleware(nil, nil, nil)
	wrapped := mw.Wrap(func(ctx context.Context, m ProviderMeta, q string) (string, error) {
		return "", nil
	})
	if _, err := wrapped(context.Background(), ProviderMeta{Name: "x"}, "q"); err != nil {
		t.Errorf("wrapped() = %v", err)
	}
	if mw.Metrics() == nil || mw.Logger() == nil {
		t.Error("accessors returned nil")
	}
}
