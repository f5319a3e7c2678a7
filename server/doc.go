// Package server exposes a Resolver over HTTP.
//
// Routes:
//
//	GET  /v1/resolve?q=...   resolve one question
//	POST /v1/resolve         resolve {"query": "..."}
//	GET  /healthz, /readyz, /health, /health/{check}
//	GET  /metrics            Prometheus exposition, when a Gatherer is set
//
// Every response carries an X-Request-ID header. Requests are rate limited
// per client address before they reach the resolver, so a noisy caller
// cannot monopolize the shared outbound pacing.
package server
