package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Timeout cancels the request context after d and answers 504 if the handler
// has not started writing. Snapshot reads return in microseconds; the guard
// exists for the refresh and analytics paths that walk the whole catalog.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !tw.written.Load() {
					slog.Warn("request timed out",
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", d,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					io.WriteString(w, `{"error":"request timed out"}`)
				}
			}
		})
	}
}

// timeoutWriter tracks whether the handler goroutine already started the
// response, so the timeout branch never writes a second one.
type timeoutWriter struct {
	http.ResponseWriter
	written atomic.Bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.written.Store(true)
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.written.Store(true)
	return tw.ResponseWriter.Write(b)
}
