package cache_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonwraymond/queryops/cache"
	"github.com/jonwraymond/queryops/resilience"
)

func ExampleNewMemoryCache() {
	c := cache.NewMemoryCache(nil)
	ctx := context.Background()

	// Store a value
	_ = c.Set(ctx, "what is go", "Go: a programming language", 5*time.Minute)

	// Retrieve the value
	value, ok := c.Get(ctx, "what is go")
	if ok {
		fmt.Println("Value:", value)
	}
	// Output:
	// Value: Go: a programming language
}

func ExampleMemoryCache_Get_expiry() {
	clock := resilience.NewManualClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c := cache.NewMemoryCache(clock)
	ctx := context.Background()

	_ = c.Set(ctx, "btc price", "Bitcoin price: $65000 / €60000", 5*time.Minute)

	clock.Advance(5 * time.Minute)
	_, ok := c.Get(ctx, "btc price")
	fmt.Println("At TTL:", ok)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "btc price")
	fmt.Println("After TTL:", ok)
	// Output:
	// At TTL: true
	// After TTL: false
}

func ExampleOpenFileCache() {
	dir, _ := os.MkdirTemp("", "queryops-example")
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "cache.json")
	ctx := context.Background()

	c, _ := cache.OpenFileCache(path, cache.FileOptions{})
	_ = c.Set(ctx, "what is rust", "Rust: a programming language", time.Hour)

	// A second process sees the same entry.
	reopened, _ := cache.OpenFileCache(path, cache.FileOptions{})
	value, ok := reopened.Get(ctx, "what is rust")
	fmt.Println(ok, value)
	// Output:
	// true Rust: a programming language
}

func ExampleNewDefaultKeyer() {
	k := cache.NewDefaultKeyer()

	fmt.Println(k.Key("wikipedia", "summary", "Rust (programming language)"))
	fmt.Println(k.QueryKey("weather in lisbon"))
	// Output:
	// wikipedia:summary:rust (programming language)
	// answer:weather in lisbon
}

func ExamplePolicy_EffectiveTTL() {
	policy := cache.Policy{
		DefaultTTL: time.Hour,
		MaxTTL:     30 * time.Minute,
	}

	fmt.Println("No override:", policy.EffectiveTTL(0))
	fmt.Println("Crypto TTL:", policy.EffectiveTTL(5*time.Minute))
	fmt.Println("Clamped:", policy.EffectiveTTL(2*time.Hour))
	// Output:
	// No override: 30m0s
	// Crypto TTL: 5m0s
	// Clamped: 30m0s
}

func ExampleMemo_Do() {
	memo := cache.NewMemo(cache.NewMemoryCache(nil), 30*time.Minute)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (string, error) {
		calls++
		return "Rust: a programming language", nil
	}

	_, _ = memo.Do(ctx, "wikipedia:summary:rust", load)
	value, _ := memo.Do(ctx, "wikipedia:summary:rust", load)
	fmt.Println(value)
	fmt.Println("Loads:", calls)
	// Output:
	// Rust: a programming language
	// Loads: 1
}

func ExampleOpen() {
	_, err := cache.Open(context.Background(), cache.Options{Type: "memcached"})
	fmt.Println(errors.Is(err, cache.ErrUnknownBackend))
	// Output:
	// true
}
