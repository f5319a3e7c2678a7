// Package provider adapts key-less public APIs into single-line answers.
//
// Every adapter implements Provider and reaches the network only through a
// Fetcher, normally the shared transport.Transport. Adapters return ("", nil)
// when the source has nothing to say and an error when the call or the
// response shape fails. Callers run adapters through Caller.Call, which turns
// both into a miss, recovers panics, and records a span, metrics, and a log
// entry per call.
//
// Registry holds adapters in registration order and builds the candidate
// chain for a set of intent tags: tagged adapters first, by tag priority,
// then every general adapter.
package provider
