// Package metrics exposes the Prometheus registry used by the WMS client.
// Metrics are defined in their packages (client, auth, pagination) and
// registered through promauto on the default registerer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - wms_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - wms_request_duration_seconds{endpoint} (Histogram): request duration incl. retries
//   - wms_errors_total{class} (Counter): errors by class (client, server, unexpected, network, decode)
//
// Retry Metrics (pkg/client):
//   - wms_retries_total{error_class} (Counter)
//   - wms_retry_backoff_seconds{error_class} (Histogram)
//   - wms_retry_exhausted_total{error_class} (Counter)
//
// Token Metrics (pkg/auth):
//   - wms_token_requests_total{result} (Counter): ok or the failure kind
//
// Fetch Metrics (pkg/pagination):
//   - wms_pages_fetched_total (Counter)
//   - wms_addresses_fetched_total (Counter)
//   - wms_fetch_runs_total{status} (Counter): runs by terminal status
//
// Example Prometheus Queries:
//
//   # Failed runs per hour
//   sum(increase(wms_fetch_runs_total{status=~"http_error|transport_error|page_limit"}[1h]))
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(wms_request_duration_seconds_bucket{endpoint="enderecos"}[5m]))
