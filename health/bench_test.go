package health

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkAggregator_Run(b *testing.B) {
	for _, n := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("checkers=%d", n), func(b *testing.B) {
			agg := NewAggregator(AggregatorConfig{})
			for i := range n {
				agg.Register(fixed(fmt.Sprintf("c%d", i), Healthy("")))
			}
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = agg.Run(ctx)
			}
		})
	}
}

func BenchmarkBreakerChecker_Check(b *testing.B) {
	reg := registryOf("wikipedia", "duckduckgo", "github")
	checker := NewBreakerChecker(breakerMap{}, reg)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = checker.Check(ctx)
	}
}
