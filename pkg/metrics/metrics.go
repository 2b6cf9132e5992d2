// Package metrics provides the centralized Prometheus registry reference
// for the e-conomic client. The metrics themselves are defined next to the
// code they observe (pkg/client) to avoid circular dependencies; this
// package documents the available series.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in pkg/client.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - economic_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - economic_request_duration_seconds{endpoint} (Histogram): request duration by endpoint
//   - economic_errors_total{class} (Counter): errors by class (client, server, network)
//
// Pagination Metrics (pkg/client):
//   - economic_pages_fetched_total{endpoint} (Counter): pages fetched by endpoint
//   - economic_items_fetched_total{endpoint} (Counter): items accumulated by endpoint
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(economic_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(economic_request_duration_seconds_bucket[5m]))
//
//   # Average Items Per Page
//   rate(economic_items_fetched_total[5m]) / rate(economic_pages_fetched_total[5m])
