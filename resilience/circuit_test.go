package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func newTestBreaker(maxFailures int, reset time.Duration) (*CircuitBreaker, *ManualClock) {
	clock := NewManualClock(time.Unix(1_700_000_000, 0))
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  maxFailures,
		ResetTimeout: reset,
		Clock:        clock,
	})
	return cb, clock
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.State() != StateClosed {
		t.Errorf("Initial state = %v, want closed", cb.State())
	}
	if cb.config.MaxFailures != 5 {
		t.Errorf("MaxFailures = %d, want 5", cb.config.MaxFailures)
	}
	if cb.config.ResetTimeout != 30*time.Second {
		t.Errorf("ResetTimeout = %v, want 30s", cb.config.ResetTimeout)
	}
	if _, ok := cb.config.Clock.(SystemClock); !ok {
		t.Errorf("Clock = %T, want SystemClock", cb.config.Clock)
	}
}

func TestCircuitBreaker_OpenAfterFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Second)

	for i := 0; i < 2; i++ {
		if err := cb.Allow(); err != nil {
			t.Fatalf("Allow() = %v, want nil", err)
		}
		cb.Record(errBoom)
		if cb.State() != StateClosed {
			t.Errorf("After %d failures, state = %v, want closed", i+1, cb.State())
		}
	}

	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil", err)
	}
	cb.Record(errBoom)
	if cb.State() != StateOpen {
		t.Errorf("After 3 failures, state = %v, want open", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Allow() on open circuit = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Second)

	cb.Record(errBoom)
	cb.Record(nil)
	cb.Record(errBoom)

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed (failures are consecutive)", cb.State())
	}
	if got := cb.Metrics().Failures; got != 1 {
		t.Errorf("Failures = %d, want 1", got)
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	tests := []struct {
		name      string
		probeErr  error
		wantState State
	}{
		{"probe succeeds", nil, StateClosed},
		{"probe fails", errBoom, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, clock := newTestBreaker(1, 10*time.Second)
			cb.Record(errBoom)

			clock.Advance(9 * time.Second)
			if cb.State() != StateOpen {
				t.Fatalf("state before reset timeout = %v, want open", cb.State())
			}

			clock.Advance(time.Second)
			if cb.State() != StateHalfOpen {
				t.Fatalf("state after reset timeout = %v, want half-open", cb.State())
			}

			if err := cb.Allow(); err != nil {
				t.Fatalf("first probe Allow() = %v, want nil", err)
			}
			if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
				t.Errorf("second probe Allow() = %v, want ErrCircuitOpen", err)
			}

			cb.Record(tt.probeErr)
			if cb.State() != tt.wantState {
				t.Errorf("state after probe = %v, want %v", cb.State(), tt.wantState)
			}
		})
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Second,
		Clock:        clock,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	cb.Record(errBoom)
	clock.Advance(time.Second)
	_ = cb.Allow()
	cb.Record(nil)

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions[%d] = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Hour)
	cb.Record(errBoom)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("state after Reset = %v, want closed", cb.State())
	}
	if err := cb.Allow(); err != nil {
		t.Errorf("Allow() after Reset = %v, want nil", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestBreakers(t *testing.T) {
	b := NewBreakers(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})

	wiki := b.Get("wikipedia")
	if b.Get("wikipedia") != wiki {
		t.Error("Get returned a different breaker for the same name")
	}
	wiki.Record(errBoom)

	if b.Get("duckduckgo").State() != StateClosed {
		t.Error("unrelated breaker was affected")
	}

	snap := b.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len(Snapshot()) = %d, want 2", len(snap))
	}
	if snap["wikipedia"].State != StateOpen {
		t.Errorf("wikipedia state = %v, want open", snap["wikipedia"].State)
	}
	if snap["duckduckgo"].State != StateClosed {
		t.Errorf("duckduckgo state = %v, want closed", snap["duckduckgo"].State)
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1000, ResetTimeout: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if cb.Allow() == nil {
				if i%2 == 0 {
					cb.Record(errBoom)
				} else {
					cb.Record(nil)
				}
			}
			_ = cb.Metrics()
		}(i)
	}
	wg.Wait()

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}
