package health_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/jonwraymond/queryops/cache"
	"github.com/jonwraymond/queryops/health"
)

func ExampleNewCacheChecker() {
	ctx := context.Background()
	c := cache.NewMemoryCache(nil)
	_ = c.Set(ctx, "query:capital of romania", "Bucharest", time.Hour)

	result := health.NewCacheChecker(c).Check(ctx)
	fmt.Println(result.Status, result.Message)
	// Output:
	// healthy 1 entries
}

func ExampleAggregator_Run() {
	agg := health.NewAggregator(health.AggregatorConfig{})
	agg.Register(
		health.NewCacheChecker(cache.NewMemoryCache(nil)),
		health.NewCheckerFunc("upstream", func(context.Context) health.Result {
			return health.Degraded("wikipedia is slow")
		}),
	)

	report := agg.Run(context.Background())
	fmt.Println(report.Status)
	fmt.Println(report.Checks["upstream"].Message)
	// Output:
	// degraded
	// wikipedia is slow
}

func ExampleRegisterHandlers() {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, health.NewAggregator(health.AggregatorConfig{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	fmt.Println(rec.Code, rec.Body.String())
	// Output:
	// 200 OK
}
