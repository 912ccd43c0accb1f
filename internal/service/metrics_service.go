package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/school-roster-api/internal/models"
)

const metricsNamespace = "school_roster"

// MetricsService owns the Prometheus registry and keeps running totals for snapshots.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    *prometheus.HistogramVec
	writeTxDuration *prometheus.HistogramVec
	enrollments     *prometheus.CounterVec
	merges          *prometheus.CounterVec

	cacheHitCount  atomic.Uint64
	cacheMissCount atomic.Uint64
	requestCount   atomic.Uint64
	requestNanos   atomic.Uint64
	writeTxCount   atomic.Uint64
	writeTxNanos   atomic.Uint64
}

// NewMetricsService registers the HTTP, cache and write-path collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route template and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "cache_lookups_total",
		Help:      "Read-through cache lookups by result (hit, miss).",
	}, []string{"result"})

	m.cacheLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cache_operation_seconds",
		Help:      "Redis round trip by operation (get, set).",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	}, []string{"op"})

	m.writeTxDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "write_tx_duration_seconds",
		Help:      "Duration of multi-row write transactions (bulk_enroll, merge).",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	m.enrollments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "class_enrollment_changes_total",
		Help:      "Class placements written by outcome (enrolled, moved, removed, failed).",
	}, []string{"outcome"})

	m.merges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "duplicate_merges_total",
		Help:      "Duplicate profile merges by result (merged, rejected, failed).",
	}, []string{"result"})

	hitRatio := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "cache_hit_ratio",
		Help:      "Share of cache lookups served from Redis since start.",
	}, m.hitRatio)

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "goroutines",
		Help:      "Number of live goroutines.",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.registry.MustRegister(m.requestDuration, m.cacheLookups, m.cacheLatency, m.writeTxDuration, m.enrollments, m.merges, hitRatio, goroutines)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
	m.requestCount.Add(1)
	m.requestNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and its latency.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.cacheHitCount.Add(1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	m.cacheMissCount.Add(1)
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// ObserveWriteTx records how long a write transaction held its locks.
func (m *MetricsService) ObserveWriteTx(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.writeTxDuration.WithLabelValues(op).Observe(duration.Seconds())
	m.writeTxCount.Add(1)
	m.writeTxNanos.Add(uint64(duration.Nanoseconds()))
}

// ObserveEnrollment counts class placement changes.
func (m *MetricsService) ObserveEnrollment(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.enrollments.WithLabelValues(outcome).Add(float64(n))
}

// ObserveMerge counts duplicate merges by result.
func (m *MetricsService) ObserveMerge(result string) {
	if m == nil {
		return
	}
	m.merges.WithLabelValues(result).Inc()
}

func (m *MetricsService) hitRatio() float64 {
	hits := m.cacheHitCount.Load()
	total := hits + m.cacheMissCount.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snapshot summarises the counters for the system metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := m.requestCount.Load()
	writes := m.writeTxCount.Load()
	return models.SystemMetrics{
		CacheHitRatio:    m.hitRatio(),
		CacheHits:        m.cacheHitCount.Load(),
		CacheMisses:      m.cacheMissCount.Load(),
		RequestsTotal:    requests,
		AverageRequestMs: averageMillis(m.requestNanos.Load(), requests),
		WriteTxTotal:     writes,
		AverageWriteTxMs: averageMillis(m.writeTxNanos.Load(), writes),
		Goroutines:       runtime.NumGoroutine(),
		GeneratedAt:      time.Now().UTC(),
	}
}

func averageMillis(totalNanos, n uint64) float64 {
	if n == 0 {
		return 0
	}
	return float64(totalNanos) / float64(n) / float64(time.Millisecond)
}
