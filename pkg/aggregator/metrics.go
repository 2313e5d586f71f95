package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_fetch_outcomes_total",
			Help: "Per-record fetch outcomes during population (success, not_found, transport_failure)",
		},
		[]string{"result"},
	)

	listingFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aggregator_listing_failures_total",
			Help: "Total number of populations aborted by a failed listing fetch",
		},
	)

	populationsAbortedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aggregator_populations_aborted_total",
			Help: "Total number of populations discarded because the circuit breaker rejected fetches",
		},
	)

	populationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregator_population_duration_seconds",
			Help:    "Time to build the collection from listing to join",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	rankingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_ranking_requests_total",
			Help: "Total number of ranking queries by key",
		},
		[]string{"key"},
	)
)
