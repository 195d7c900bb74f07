package graphin

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for graphin operations and
// the response cache. It is safe for concurrent use; every recorder is a
// no-op on a nil collector.
type MetricsCollector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	inFlight          *prometheus.GaugeVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   prometheus.Gauge

	deduplicationHits *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec

	registry prometheus.Registerer
}

var (
	defaultCollectorOnce sync.Once
	defaultCollector     *MetricsCollector
)

// NewMetricsCollector creates a metrics collector on the default registerer.
// It panics if called twice, as promauto refuses duplicate registration;
// WithMetrics shares a single instance instead.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// defaultMetricsCollector returns the process-wide collector on the default
// registerer, creating it on first use.
func defaultMetricsCollector() *MetricsCollector {
	defaultCollectorOnce.Do(func() {
		defaultCollector = NewMetricsCollector()
	})
	return defaultCollector
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		operationsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphin_operations_total",
				Help: "Total number of GraphQL operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "graphin_operation_duration_seconds",
				Help:    "Duration of GraphQL transport calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),
		inFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "graphin_operations_in_flight",
				Help: "Number of GraphQL transport calls currently in flight",
			},
			[]string{"operation"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphin_cache_hits_total",
				Help: "Total number of response cache hits",
			},
			[]string{"operation"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphin_cache_misses_total",
				Help: "Total number of response cache misses",
			},
			[]string{"operation"},
		),
		cacheSize: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "graphin_cache_size",
				Help: "Current number of entries in the response cache",
			},
		),
		deduplicationHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphin_deduplication_hits_total",
				Help: "Total number of calls served by another in-flight call",
			},
			[]string{"operation"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphin_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"type", "operation"},
		),
		registry: registry,
	}
}

// RecordOperation records the outcome and duration of a transport call.
func (mc *MetricsCollector) RecordOperation(operation OperationKind, outcome string, duration time.Duration) {
	if mc == nil {
		return
	}

	mc.operationsTotal.WithLabelValues(string(operation), outcome).Inc()
	mc.operationDuration.WithLabelValues(string(operation), outcome).Observe(duration.Seconds())
}

// RecordStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordStart(operation OperationKind) {
	if mc == nil {
		return
	}

	mc.inFlight.WithLabelValues(string(operation)).Inc()
}

// RecordEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordEnd(operation OperationKind) {
	if mc == nil {
		return
	}

	mc.inFlight.WithLabelValues(string(operation)).Dec()
}

// RecordCacheHit increments cache hit counter.
func (mc *MetricsCollector) RecordCacheHit(operation OperationKind) {
	if mc == nil {
		return
	}

	mc.cacheHits.WithLabelValues(string(operation)).Inc()
}

// RecordCacheMiss increments cache miss counter.
func (mc *MetricsCollector) RecordCacheMiss(operation OperationKind) {
	if mc == nil {
		return
	}

	mc.cacheMisses.WithLabelValues(string(operation)).Inc()
}

// RecordCacheSize sets cache size gauge.
func (mc *MetricsCollector) RecordCacheSize(size int) {
	if mc == nil {
		return
	}

	mc.cacheSize.Set(float64(size))
}

// RecordDeduplicationHit increments de-dup hit counter.
func (mc *MetricsCollector) RecordDeduplicationHit(operation OperationKind) {
	if mc == nil {
		return
	}

	mc.deduplicationHits.WithLabelValues(string(operation)).Inc()
}

// RecordError increments error counter by type.
func (mc *MetricsCollector) RecordError(errorType string, operation OperationKind) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(errorType, string(operation)).Inc()
}

// GetRegistry exposes the registerer the collector was created with.
func (mc *MetricsCollector) GetRegistry() prometheus.Registerer {
	return mc.registry
}
