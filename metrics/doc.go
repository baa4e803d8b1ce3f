// Package metrics aggregates per-request counters and latency percentiles
// for the serving process.
//
// Collector keeps request counts by method and status, error counts by kind,
// and a bounded window of the most recent latency samples from which average,
// p95 and p99 are derived. A Collector is constructed explicitly and passed
// where it is needed; there is no package-level singleton, so tests get
// isolated instances. Counters and durations are optionally mirrored to an
// OpenTelemetry meter, which NewMeterProvider can back with a Prometheus or
// stdout exporter.
package metrics
