// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "souschef_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "souschef_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ExternalRequestsTotal counts calls to LLM, vision and agent endpoints by outcome.
	ExternalRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "souschef_external_requests_total",
			Help: "Total number of requests to external AI services",
		},
		[]string{"service", "operation", "outcome"},
	)

	ExternalRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "souschef_external_request_duration_seconds",
			Help:    "External AI service request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"service", "operation"},
	)

	ChatFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "souschef_chat_stream_fallbacks_total",
		Help: "Chat turns answered by the non-streaming fallback",
	})

	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "souschef_cache_operations_total",
			Help: "Redis cache lookups by result",
		},
		[]string{"cache", "result"},
	)
)

// Handler serves the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
