package cache

import (
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.DefaultTTL != time.Hour || p.MaxTTL != 24*time.Hour {
		t.Errorf("DefaultPolicy() = %+v, want 1h/24h", p)
	}
	if !p.ShouldCache() {
		t.Error("DefaultPolicy().ShouldCache() = false")
	}
}

func TestNoCachePolicy(t *testing.T) {
	p := NoCachePolicy()
	if p.ShouldCache() {
		t.Error("NoCachePolicy().ShouldCache() = true")
	}
	if got := p.EffectiveTTL(30 * time.Minute); got != 0 {
		t.Errorf("EffectiveTTL(30m) = %v, want 0", got)
	}
}

func TestPolicy_EffectiveTTL(t *testing.T) {
	hourDay := Policy{DefaultTTL: time.Hour, MaxTTL: 24 * time.Hour}

	tests := []struct {
		name   string
		policy Policy
		ttl    time.Duration
		want   time.Duration
	}{
		{"general provider", hourDay, 0, time.Hour},
		{"encyclopedic provider", hourDay, 30 * time.Minute, 30 * time.Minute},
		{"market quote", hourDay, 5 * time.Minute, 5 * time.Minute},
		{"weekly provider capped", hourDay, 7 * 24 * time.Hour, 24 * time.Hour},
		{"negative ttl uses default", hourDay, -time.Minute, time.Hour},
		{"default above cap", Policy{DefaultTTL: 2 * time.Hour, MaxTTL: time.Hour}, 0, time.Hour},
		{"uncapped", Policy{DefaultTTL: time.Minute}, 48 * time.Hour, 48 * time.Hour},
		{"disabled ignores provider", Policy{MaxTTL: time.Hour}, 5 * time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.EffectiveTTL(tt.ttl); got != tt.want {
				t.Errorf("EffectiveTTL(%v) = %v, want %v", tt.ttl, got, tt.want)
			}
		})
	}
}

func TestPolicy_ShouldCache(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		if (Policy{DefaultTTL: ttl}).ShouldCache() {
			t.Errorf("Policy{DefaultTTL: %v}.ShouldCache() = true", ttl)
		}
	}
	if !(Policy{DefaultTTL: time.Second}).ShouldCache() {
		t.Error("Policy{DefaultTTL: 1s}.ShouldCache() = false")
	}
}
