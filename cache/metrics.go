package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks cache hits.
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "servicekit_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// cacheMisses tracks cache misses, including degraded reads.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "servicekit_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// cacheErrors tracks swallowed cache operation errors.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servicekit_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "clear", "incr"
	)
)
