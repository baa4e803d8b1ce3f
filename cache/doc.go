// Package cache provides the Redis-backed caching layer of servicekit.
//
// Store is a lifecycle-managed client for a remote key-value cache. Failure
// semantics follow a strict split: Connect is the only fatal path (a serving
// process cannot start without its cache), while every post-connect operation
// is best-effort: a failed read degrades to a miss and a failed write is
// logged and swallowed. SessionStore layers ephemeral user sessions on top of
// Store under a fixed key prefix, Memoize turns any function into a cached
// one by composition, and HTTPMiddleware serves and populates cached
// responses for idempotent requests.
package cache
