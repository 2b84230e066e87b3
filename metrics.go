package prospectindata

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request lifecycle:
// dispatch counts and latency, retries, cache effectiveness, rate-limiter
// pressure, and classified errors. Safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	rateLimiterWait   *prometheus.HistogramVec
	rateLimiterActive *prometheus.GaugeVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer; tests pass a private registry to avoid duplicate registration.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospectindata_requests_total",
				Help: "Total number of logical API calls by outcome status",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prospectindata_request_duration_seconds",
				Help:    "Duration of logical API calls including retries and waits",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "prospectindata_requests_in_flight",
				Help: "Number of logical API calls currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospectindata_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "endpoint", "attempt"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospectindata_cache_hits_total",
				Help: "Total number of fresh cache hits (no network call made)",
			},
			[]string{"method", "endpoint"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospectindata_cache_misses_total",
				Help: "Total number of cache misses, including stale and corrupt entries",
			},
			[]string{"method", "endpoint"},
		),
		rateLimiterWait: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prospectindata_rate_limiter_wait_seconds",
				Help:    "Time spent waiting for a rate-limiter slot",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		rateLimiterActive: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "prospectindata_rate_limiter_active",
				Help: "Request starts currently inside the rate-limiter window",
			},
			[]string{"name"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospectindata_errors_total",
				Help: "Total number of classified errors",
			},
			[]string{"type", "method", "endpoint"},
		),
	}
}

// RecordRequestStart marks a logical call in flight.
func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd marks a logical call finished.
func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordRequest records a completed logical call with its outcome status.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, status, endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, status, endpoint).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (mc *MetricsCollector) RecordRetry(method, endpoint string, attempt int) {
	mc.retriesTotal.WithLabelValues(method, endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordCacheHit records a fresh cache hit.
func (mc *MetricsCollector) RecordCacheHit(method, endpoint string) {
	mc.cacheHits.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheMiss records a cache miss.
func (mc *MetricsCollector) RecordCacheMiss(method, endpoint string) {
	mc.cacheMisses.WithLabelValues(method, endpoint).Inc()
}

// RecordRateLimiterWait records time spent acquiring a slot and the window
// occupancy observed afterwards.
func (mc *MetricsCollector) RecordRateLimiterWait(endpoint string, wait time.Duration, active int) {
	mc.rateLimiterWait.WithLabelValues(endpoint).Observe(wait.Seconds())
	mc.rateLimiterActive.WithLabelValues("default").Set(float64(active))
}

// RecordError records a classified error.
func (mc *MetricsCollector) RecordError(errorType ErrorType, method, endpoint string) {
	mc.errorsTotal.WithLabelValues(string(errorType), method, endpoint).Inc()
}
