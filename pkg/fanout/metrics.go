package fanout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fanoutItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_items_total",
			Help: "Total fan-out items resolved, by result (ok, error, cancelled)",
		},
		[]string{"result"},
	)

	fanoutInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanout_in_flight",
			Help: "Number of fan-out calls currently in flight",
		},
	)

	fanoutPoolCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanout_pool_capacity",
			Help: "Configured maximum concurrency of the fan-out pool",
		},
	)

	fanoutRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fanout_run_duration_seconds",
			Help:    "Time until every input of a fan-out run is resolved",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
)
