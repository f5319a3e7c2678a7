// Package health reports whether a queryops process can answer questions.
//
// A Checker inspects one dependency and returns a Result with a Status of
// Healthy, Degraded, or Unhealthy. The Aggregator runs every registered
// checker under one timeout and folds the results into a Report whose status
// is the worst of its checks.
//
// # Built-in checks
//
//   - CacheChecker pings the answer cache and reports its entry counts.
//   - RegistryChecker fails when no provider is registered.
//   - BreakerChecker degrades while provider circuits are open and fails
//     when every provider is being skipped.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// registers /healthz (liveness), /readyz (readiness), /health (JSON report),
// and /health/{check} (one check).
package health
