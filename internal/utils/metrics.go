package utils

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	registry *prometheus.Registry

	requestCount prometheus.Counter
	errorCount   prometheus.Counter

	// Operation latencies in seconds, labelled by operation name
	operationTimes *prometheus.HistogramVec
}

func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "post_board",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests handled.",
		}),
		errorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "post_board",
			Name:      "http_errors_total",
			Help:      "HTTP requests that ended with a 4xx or 5xx status.",
		}),
		operationTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "post_board",
			Name:      "operation_duration_seconds",
			Help:      "Latency of engine operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	mc.registry.MustRegister(
		mc.requestCount,
		mc.errorCount,
		mc.operationTimes,
		collectors.NewGoCollector(),
	)
	return mc
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.requestCount.Inc()
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.errorCount.Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.operationTimes.WithLabelValues(operationName).Observe(duration.Seconds())
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}

// RequestCounter and ErrorCounter expose the raw counters for tests.
func (mc *MetricsCollector) RequestCounter() prometheus.Counter { return mc.requestCount }

func (mc *MetricsCollector) ErrorCounter() prometheus.Counter { return mc.errorCount }
