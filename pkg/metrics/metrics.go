// Package metrics exposes the Prometheus registry used by the service.
// All metrics are defined in their respective packages (client, fanout, cache,
// aggregator, api) to maintain modularity and avoid circular dependencies.
//
// This package provides the HTTP handler and a reference of all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the /metrics endpoint handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Upstream Request Metrics (pkg/client):
//   - pokeapi_requests_total{endpoint, status} (Counter): Upstream requests by endpoint template and HTTP status
//   - pokeapi_request_duration_seconds{endpoint} (Histogram): Upstream request duration
//   - pokeapi_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, timeout, decode, circuit_open)
//   - pokeapi_not_found_total (Counter): Lookups answered with 404
//
// Retry Metrics (pkg/client):
//   - pokeapi_retries_total{error_class} (Counter): Retry attempts by error class
//   - pokeapi_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - pokeapi_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Circuit Breaker Metrics (pkg/client):
//   - pokeapi_circuit_breaker_state{name} (Gauge): 0 closed, 1 half-open, 2 open
//   - pokeapi_circuit_breaker_transitions_total{name, from, to} (Counter): State transitions
//
// Fan-out Metrics (pkg/fanout):
//   - fanout_items_total{result} (Counter): Items resolved (ok, error, cancelled)
//   - fanout_in_flight (Gauge): Calls currently in flight
//   - fanout_pool_capacity (Gauge): Configured pool bound
//   - fanout_run_duration_seconds (Histogram): Time until a run's barrier is reached
//
// Cache Metrics (pkg/cache):
//   - pokeapi_cache_hits_total{layer} (Counter): Hits by layer (memory, redis)
//   - pokeapi_cache_misses_total (Counter): Misses
//   - pokeapi_cache_loads_total{result} (Counter): Population attempts (ok, error, discarded)
//   - pokeapi_cache_invalidations_total (Counter): Manual invalidations
//   - pokeapi_cache_entries (Gauge): Entities in the cached collection
//   - pokeapi_cache_size_bytes{layer="redis"} (Gauge): Encoded entry size
//   - pokeapi_cache_errors_total{operation} (Counter): Redis operation errors
//
// Aggregator Metrics (pkg/aggregator):
//   - aggregator_fetch_outcomes_total{result} (Counter): Per-record outcomes (success, not_found, transport_failure)
//   - aggregator_listing_failures_total (Counter): Populations aborted by the listing
//   - aggregator_populations_aborted_total (Counter): Populations discarded after circuit breaker rejections
//   - aggregator_population_duration_seconds (Histogram): Listing-to-join duration
//   - aggregator_ranking_requests_total{key} (Counter): Ranking queries by key
//
// HTTP API Metrics (internal/api):
//   - http_requests_total{route, method, status} (Counter): Requests served
//   - http_request_duration_seconds{route, method} (Histogram): Handler latency
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(pokeapi_cache_hits_total[5m])) /
//   (sum(rate(pokeapi_cache_hits_total[5m])) + sum(rate(pokeapi_cache_misses_total[5m])))
//
//   # Share of listed records dropped during population
//   sum(rate(aggregator_fetch_outcomes_total{result!="success"}[1h])) /
//   sum(rate(aggregator_fetch_outcomes_total[1h]))
//
//   # Upstream circuit open
//   pokeapi_circuit_breaker_state == 2
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(pokeapi_request_duration_seconds_bucket[5m]))
