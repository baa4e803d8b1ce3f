// Package errtrack captures exceptions and messages as structured local log
// entries and forwards them, best effort, to a remote error-aggregation
// endpoint.
//
// Local logging always happens. Remote forwarding is optional: a Tracker
// constructed without an endpoint degrades silently to local-only operation.
// When an endpoint is configured, events are forwarded asynchronously through
// a retrying HTTP client behind a circuit breaker, and forwarding failures
// never surface to the caller.
//
//	tracker := errtrack.New(errtrack.Config{
//		Endpoint:    "https://errors.example.com/ingest",
//		Environment: "production",
//		Logger:      log,
//	})
//	defer tracker.Close()
//
//	tracker.CaptureException(ctx, err, map[string]any{"order_id": id})
package errtrack
