package health

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/jonwraymond/queryops/resilience"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixed(name string, r Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return r })
}

func TestNewAggregator_Defaults(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	if agg.config.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", agg.config.Timeout)
	}
	if agg.config.Clock == nil {
		t.Error("Clock is nil")
	}
}

func TestAggregator_Register(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	agg.Register(fixed("b", Healthy("")), fixed("a", Healthy("")))
	agg.Register(fixed("b", Degraded("replaced")))

	if got := agg.Names(); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("Names() = %v, want [b a]", got)
	}
	r, err := agg.Check(context.Background(), "b")
	if err != nil {
		t.Fatalf("Check(b) error = %v", err)
	}
	if r.Message != "replaced" {
		t.Errorf("Check(b).Message = %q, want replaced", r.Message)
	}
}

func TestAggregator_CheckUnknown(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	if _, err := agg.Check(context.Background(), "nope"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check(nope) error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_Run(t *testing.T) {
	tests := []struct {
		name     string
		checkers []Checker
		want     Status
	}{
		{name: "empty", want: StatusHealthy},
		{
			name:     "all healthy",
			checkers: []Checker{fixed("a", Healthy("")), fixed("b", Healthy(""))},
			want:     StatusHealthy,
		},
		{
			name:     "one degraded",
			checkers: []Checker{fixed("a", Healthy("")), fixed("b", Degraded(""))},
			want:     StatusDegraded,
		},
		{
			name:     "unhealthy wins",
			checkers: []Checker{fixed("a", Degraded("")), fixed("b", Unhealthy("", nil)), fixed("c", Healthy(""))},
			want:     StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := resilience.NewManualClock(epoch)
			agg := NewAggregator(AggregatorConfig{Clock: clock})
			agg.Register(tt.checkers...)

			report := agg.Run(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.checkers) {
				t.Errorf("len(Checks) = %d, want %d", len(report.Checks), len(tt.checkers))
			}
			if !report.Timestamp.Equal(epoch) {
				t.Errorf("Timestamp = %v, want %v", report.Timestamp, epoch)
			}
			for name, r := range report.Checks {
				if !r.Timestamp.Equal(epoch) {
					t.Errorf("Checks[%s].Timestamp = %v, want %v", name, r.Timestamp, epoch)
				}
			}
		})
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	agg.Register(
		fixed("fast", Healthy("")),
		NewCheckerFunc("stuck", func(ctx context.Context) Result {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return Healthy("too late")
		}),
	)

	report := agg.Run(context.Background())
	if report.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", report.Status)
	}
	if r := report.Checks["stuck"]; !errors.Is(r.Err, ErrCheckTimeout) {
		t.Errorf("stuck.Err = %v, want ErrCheckTimeout", r.Err)
	}
	if r := report.Checks["fast"]; r.Status != StatusHealthy {
		t.Errorf("fast.Status = %v, want healthy", r.Status)
	}
}
