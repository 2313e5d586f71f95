package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_hits_total",
			Help: "Total number of collection cache hits",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheMisses tracks lookups that had to populate the collection
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_misses_total",
			Help: "Total number of collection cache misses",
		},
	)

	// CacheLoads tracks population attempts by result
	CacheLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_loads_total",
			Help: "Total number of collection population attempts",
		},
		[]string{"result"}, // "ok", "error", "discarded"
	)

	// CacheInvalidations tracks manual invalidations
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_invalidations_total",
			Help: "Total number of collection cache invalidations",
		},
	)

	// CacheEntries tracks the number of entities in the in-process collection
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokeapi_cache_entries",
			Help: "Number of entities in the cached collection",
		},
	)

	// CacheSize tracks the encoded size of the cached entry by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pokeapi_cache_size_bytes",
			Help: "Encoded size of the cached collection in bytes",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
