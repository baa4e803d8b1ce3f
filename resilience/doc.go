// Package resilience provides failure-isolation primitives for the outbound
// calls servicekit makes: retry with exponential backoff for establishing the
// cache connection, a circuit breaker guarding the remote error-forwarding
// sink, and a timeout wrapper for bounding health probes.
package resilience
