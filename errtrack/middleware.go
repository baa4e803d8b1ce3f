package errtrack

import (
	"context"
	"fmt"
	"net/http"
)

type captureContextKey struct{}

// RequestContext returns the mutable capture-context map installed by
// HTTPMiddleware, or nil outside it. Handlers may add fields that will be
// attached to any exception captured for the request. The map belongs to a
// single request and must not be shared across goroutines.
func RequestContext(ctx context.Context) map[string]any {
	m, _ := ctx.Value(captureContextKey{}).(map[string]any)
	return m
}

// HTTPMiddleware returns middleware that installs a capture context before
// the handler runs and converts handler panics into captured exceptions
// afterwards. A recovered panic is reported as a 500 response.
func (t *Tracker) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capture := map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}
			ctx := context.WithValue(r.Context(), captureContextKey{}, capture)

			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("panic: %v", rec)
					} else {
						err = fmt.Errorf("panic: %w", err)
					}
					t.CaptureException(ctx, err, capture)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
