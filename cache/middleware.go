package cache

import (
	"bytes"
	"context"
	"net/http"
	"time"
)

// cachedResponse is the stored form of a cacheable HTTP response.
type cachedResponse struct {
	Status int                 `json:"status"`
	Header map[string][]string `json:"header"`
	Body   []byte              `json:"body"`
}

// HTTPMiddlewareConfig configures the response-caching middleware.
type HTTPMiddlewareConfig struct {
	// Namespace prefixes every cache key. Default: "httpcache".
	Namespace string

	// TTL for cached responses. Non-positive selects the store default.
	TTL time.Duration
}

// HTTPMiddleware returns a middleware that serves and populates cached
// responses for idempotent requests (GET and HEAD).
//
// The cache key is the namespace plus the method, full request path, and
// query string. On a hit the stored response is replayed verbatim and the
// downstream handler never runs. On a miss the ResponseWriter is wrapped in
// a recorder (the shared response is decorated, not mutated) and a 2xx
// response is written back to the cache asynchronously. That write is
// fire-and-forget: it can neither delay nor fail the response.
func HTTPMiddleware(store *Store, cfg HTTPMiddlewareConfig) func(http.Handler) http.Handler {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "httpcache"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			key := namespace + ":" + r.Method + ":" + r.URL.Path + "?" + r.URL.RawQuery

			var cached cachedResponse
			if store.GetJSON(r.Context(), key, &cached) {
				h := w.Header()
				for name, values := range cached.Header {
					h[name] = values
				}
				h.Set("X-Cache", "HIT")
				w.WriteHeader(cached.Status)
				_, _ = w.Write(cached.Body)
				return
			}

			rec := newResponseRecorder(w)
			rec.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(rec, r)

			if rec.status < 200 || rec.status >= 300 {
				return
			}

			entry := cachedResponse{
				Status: rec.status,
				Header: rec.snapshotHeader(),
				Body:   rec.body.Bytes(),
			}
			// The request context dies when the handler returns; the
			// population write must outlive it.
			go store.Set(context.WithoutCancel(r.Context()), key, entry, cfg.TTL)
		})
	}
}

// responseRecorder tees a response to its buffer while passing it through to
// the underlying writer.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *responseRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

// snapshotHeader copies the headers as they stood when the response was
// produced, minus the cache marker itself.
func (r *responseRecorder) snapshotHeader() map[string][]string {
	src := r.Header()
	out := make(map[string][]string, len(src))
	for name, values := range src {
		if name == "X-Cache" {
			continue
		}
		out[name] = append([]string(nil), values...)
	}
	return out
}
