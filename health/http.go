package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// LivenessHandler returns an HTTP handler for liveness probes.
// It only asserts the process is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes. It serves
// the last computed snapshot without triggering a sweep, so a scrape is
// always cheap.
func ReadinessHandler(c *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := c.Status()

		w.Header().Set("Content-Type", "text/plain")
		if snap.Status == StatusHealthy {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("DEGRADED"))
	}
}

// HealthResponse is the JSON body served by DetailedHandler.
type HealthResponse struct {
	Status    string                   `json:"status"`
	CheckedAt string                   `json:"checked_at"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

// CheckResponse is the JSON form of a single probe result.
type CheckResponse struct {
	Status   string `json:"status"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// DetailedHandler returns an HTTP handler serving the full per-probe
// snapshot as JSON.
func DetailedHandler(c *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := c.Status()

		response := HealthResponse{
			Status:    snap.Status.String(),
			CheckedAt: snap.CheckedAt.UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResponse, len(snap.Results)),
		}
		for name, result := range snap.Results {
			response.Checks[name] = CheckResponse{
				Status:   result.Status.String(),
				Duration: result.Duration.String(),
				Error:    result.Err,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if snap.Status == StatusHealthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(response)
	}
}

// RegisterHandlers registers the standard health endpoints on mux.
func RegisterHandlers(mux *http.ServeMux, c *Checker) {
	mux.HandleFunc("/healthz", LivenessHandler())
	mux.HandleFunc("/readyz", ReadinessHandler(c))
	mux.HandleFunc("/health", DetailedHandler(c))
}
