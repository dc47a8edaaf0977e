package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
)

// MetricsService encapsulates Prometheus instrumentation for the API and its background work.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	syncOutcomes    *prometheus.CounterVec
	syncDropped     prometheus.Counter
	batchFailures   prometheus.Counter
	batchDuration   prometheus.Observer
	alertsServed    *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	syncOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relationship_sync_total",
		Help: "Trainer relationship sync attempts by outcome",
	}, []string{"outcome", "kind"})

	syncDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relationship_sync_dropped_total",
		Help: "Formation sync jobs dropped because the worker queue was unavailable",
	})

	batchFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "classifier_batch_failures_total",
		Help: "History batches that failed during roster classification",
	})

	batchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "classifier_batch_duration_seconds",
		Help:    "Duration of history batch lookups",
		Buckets: prometheus.DefBuckets,
	})

	alertsServed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recycling_alerts_total",
		Help: "Recycling alerts returned to holders by status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheLookups,
		syncOutcomes, syncDropped, batchFailures, batchDuration, alertsServed, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheLookups:    cacheLookups,
		syncOutcomes:    syncOutcomes,
		syncDropped:     syncDropped,
		batchFailures:   batchFailures,
		batchDuration:   batchDuration,
		alertsServed:    alertsServed,
	}
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordSync counts a relationship sync attempt.
func (m *MetricsService) RecordSync(outcome models.SyncOutcome, kind recycling.EventKind) {
	if m == nil {
		return
	}
	m.syncOutcomes.WithLabelValues(string(outcome), string(kind)).Inc()
}

// RecordSyncDropped counts a sync event that never reached a worker.
func (m *MetricsService) RecordSyncDropped() {
	if m == nil {
		return
	}
	m.syncDropped.Inc()
}

// ObserveClassifierBatch records one history batch lookup.
func (m *MetricsService) ObserveClassifierBatch(failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(duration.Seconds())
	if failed {
		m.batchFailures.Inc()
	}
}

// RecordAlerts counts the alerts returned to a holder.
func (m *MetricsService) RecordAlerts(summary recycling.AlertSummary) {
	if m == nil {
		return
	}
	m.alertsServed.WithLabelValues(string(recycling.StatusExpired)).Add(float64(summary.Expired))
	m.alertsServed.WithLabelValues(string(recycling.StatusExpiringSoon)).Add(float64(summary.ExpiringSoon))
	m.alertsServed.WithLabelValues(string(recycling.StatusReminder)).Add(float64(summary.Reminder))
}
