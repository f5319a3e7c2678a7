// Package transport is the single rate-limited egress path for every
// outbound request.
//
// A Transport paces requests globally and per host, retries rate-limited
// (429), server-error (5xx) and transport-level failures with bounded
// backoff, honors Retry-After, and bounds response bodies. Pacing and the
// single send it guards happen under one lock; backoff waits do not hold it,
// and every retry is paced again.
//
// # Usage
//
//	t := transport.New(transport.DefaultConfig())
//
//	var out struct{ Answer string }
//	err := t.FetchJSON(ctx, "https://api.duckduckgo.com/", url.Values{"q": {"go"}}, 0, &out)
//
// # Errors
//
// Exhausted retries return *TransportError. Non-retryable 4xx responses
// return *StatusError. JSON decode failures return *DecodeError. A done
// caller context returns ctx.Err().
package transport
