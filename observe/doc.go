// Package observe provides observability primitives for query resolution.
//
// It covers structured JSON logging, OpenTelemetry tracing and metrics, and a
// Middleware that instruments one provider call. It performs no resolution
// and no I/O beyond exporter setup. Consumers wire the observer into the
// transport, the provider boundary, and the resolver.
package observe
