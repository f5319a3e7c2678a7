package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/queryops/observe"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds an accepted inbound request ID.
const maxRequestIDLen = 128

var (
	errRateLimited = errors.New("rate limit exceeded")
	errInternal    = errors.New("internal server error")
)

type requestIDKey struct{}

// RequestIDFrom returns the request ID stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID assigns each request an ID, reusing a well-formed inbound
// X-Request-ID, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// statusRecorder captures the response status.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Logging writes one log line per request.
func Logging(next http.Handler, logger observe.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		fields := []observe.Field{
			{Key: "request_id", Value: RequestIDFrom(r.Context())},
			{Key: "method", Value: r.Method},
			{Key: "path", Value: r.URL.Path},
			{Key: "status", Value: rec.status},
			{Key: "duration_ms", Value: float64(time.Since(start).Milliseconds())},
		}
		switch {
		case rec.status >= 500:
			logger.Error(r.Context(), "http request", fields...)
		case rec.status >= 400:
			logger.Warn(r.Context(), "http request", fields...)
		default:
			logger.Info(r.Context(), "http request", fields...)
		}
	})
}

// Recover turns a handler panic into a 500 response.
func Recover(next http.Handler, logger observe.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.Error(r.Context(), "handler panicked",
				observe.Field{Key: "request_id", Value: RequestIDFrom(r.Context())},
				observe.Field{Key: "panic", Value: fmt.Sprint(v)},
			)
			writeError(w, r, http.StatusInternalServerError, errInternal)
		}()
		next.ServeHTTP(w, r)
	})
}
