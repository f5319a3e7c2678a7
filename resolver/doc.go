// Package resolver answers free-text questions.
//
// A Resolver normalizes the question, serves it from the response cache when
// possible, and otherwise classifies its intent and walks the provider chain
// for that intent until one provider answers. The answer is written back to
// the cache with the answering provider's TTL. When every provider misses, a
// fixed fallback sentence is returned and cached so an unanswerable question
// does not hit every API again.
//
// Resolve never fails and never returns an empty string. Provider errors and
// panics are absorbed at the provider.Caller boundary and only show up in
// logs, spans, and metrics.
//
// # Bounds
//
// A resolution visits each provider at most once, each provider's transport
// retries a bounded number of times, and the provider chain runs under
// Config.Deadline. When that deadline expires the fallback is returned but
// not cached.
//
// Identical questions in flight at once share one resolution. The shared
// resolution is detached from every caller's context. A caller whose context
// ends first gets the fallback straight away, uncached, while the shared
// resolution goes on and caches its answer for the next caller.
//
// Providers that keep failing are skipped for a while by a per-provider
// circuit breaker. Misses never trip a breaker.
package resolver
