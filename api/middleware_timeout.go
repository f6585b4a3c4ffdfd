package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Sunshine050/emergency-project-sub001/config"
)

// TimeoutMiddleware caps how long a request may run. Handlers see the
// deadline through the request context; requests that outlive it get a
// timeout rejection.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			// buffered so the handler goroutine never leaks when the
			// deadline fires first
			done := make(chan struct{}, 1)
			go func() {
				next.ServeHTTP(w, r)
				done <- struct{}{}
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					zap.S().Warnw("request exceeded its deadline",
						"path", r.URL.Path,
						"method", r.Method,
						"timeout", timeout,
					)
					config.RejectionStatus("timeout", "request took too long to process", http.StatusGatewayTimeout, w)
				}
			}
		})
	}
}
