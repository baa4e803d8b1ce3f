// Package servicekit bundles the caching and observability core shared by
// services: a Redis-backed cache and session store, HTTP response caching,
// request metrics with latency percentiles, periodic health sweeps, and
// error tracking with best-effort remote forwarding.
//
// The Runtime type wires the subsystems together from a single Config and is
// passed explicitly into the request pipeline. There is no package-level
// shared state, so tests construct isolated instances.
package servicekit
