// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filegate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filegate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Gateway operation metrics
	GatewayOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filegate_gateway_ops_total",
			Help: "Total number of gateway operations by outcome",
		},
		[]string{"operation", "status"}, // status: "success", "error"
	)

	GatewayOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filegate_gateway_op_duration_seconds",
			Help:    "Gateway operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Archive engine metrics
	ArchiveBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filegate_archive_bytes_total",
			Help: "Total bytes written to or extracted from archive containers",
		},
		[]string{"direction"}, // "pack", "unpack", "download"
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filegate_errors_total",
			Help: "Total number of errors by component",
		},
		[]string{"component", "error_code"},
	)
)

// RegisterMetrics ensures all metrics are registered with Prometheus.
// All metrics register via promauto; this exists for explicit initialization.
func RegisterMetrics() {}
