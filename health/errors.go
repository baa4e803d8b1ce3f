package health

import "errors"

// Sentinel errors for health checks.
var (
	// ErrProbeTimeout indicates a probe exceeded its time budget.
	ErrProbeTimeout = errors.New("health: probe timed out")

	// ErrProbePanic indicates a probe panicked and was recovered.
	ErrProbePanic = errors.New("health: probe panicked")
)
