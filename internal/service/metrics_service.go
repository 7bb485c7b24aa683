package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/term-timeline/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for timeline runs,
// snapshot loading, the dictionary cache and the admin API. All methods are
// safe on a nil receiver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	loadDuration    *prometheus.HistogramVec
	loadRows        *prometheus.GaugeVec
	runDuration     *prometheus.HistogramVec
	runOutputs      *prometheus.CounterVec
	dataQuality     *prometheus.CounterVec
	lastRunSuccess  prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	runCount             uint64
	runFailedCount       uint64
	lastRunDuration      int64
	lastRunOutputs       int64
	droppedEvents        uint64
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
		Name:    "dictionary_cache_latency_seconds",
		Help:    "Latency for dictionary cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dictionary_cache_write_seconds",
		Help:    "Latency for dictionary cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dictionary_cache_hits_total",
		Help: "Total dictionary cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dictionary_cache_misses_total",
		Help: "Total dictionary cache misses",
	})

	loadDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timeline_snapshot_load_seconds",
		Help:    "Duration of snapshot input queries",
		Buckets: []float64{.05, .1, .5, 1, 5, 15, 30, 60, 120},
	}, []string{"input"})

	loadRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "timeline_snapshot_rows",
		Help: "Rows read per snapshot input in the latest load",
	}, []string{"input"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timeline_run_duration_seconds",
		Help:    "Wall time of full timeline runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"status"})

	runOutputs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_output_records_total",
		Help: "Output records emitted by view",
	}, []string{"view"})

	dataQuality := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_data_quality_total",
		Help: "Data-quality conditions counted during runs",
	}, []string{"condition"})

	lastRunSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timeline_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		loadDuration, loadRows, runDuration, runOutputs, dataQuality, lastRunSuccess, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		loadDuration:    loadDuration,
		loadRows:        loadRows,
		runDuration:     runDuration,
		runOutputs:      runOutputs,
		dataQuality:     dataQuality,
		lastRunSuccess:  lastRunSuccess,
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

// Registry exposes the collectors for tests and custom gatherers.
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
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a dictionary cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveCacheWrite tracks the duration of a dictionary cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSnapshotLoad records the timing and row count of one input query.
func (m *MetricsService) ObserveSnapshotLoad(input string, rows int, duration time.Duration) {
	if m == nil {
		return
	}
	m.loadDuration.WithLabelValues(input).Observe(duration.Seconds())
	m.loadRows.WithLabelValues(input).Set(float64(rows))
}

// ObserveRun records a finished run. stats is ignored for failed runs.
func (m *MetricsService) ObserveRun(status models.RunStatus, duration time.Duration, stats models.RunStats) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(string(status)).Observe(duration.Seconds())
	atomic.AddUint64(&m.runCount, 1)
	atomic.StoreInt64(&m.lastRunDuration, int64(duration))
	if status != models.RunStatusSucceeded {
		atomic.AddUint64(&m.runFailedCount, 1)
		return
	}

	m.lastRunSuccess.SetToCurrentTime()
	m.runOutputs.WithLabelValues(string(models.ViewCurrent)).Add(float64(stats.CurrentRecords))
	m.runOutputs.WithLabelValues(string(models.ViewForecast)).Add(float64(stats.ForecastRecords))
	for condition, n := range map[string]int{
		"events_dropped":      stats.EventsDropped,
		"unmatched_activity":  stats.UnmatchedActivity,
		"ambiguous_programs":  stats.AmbiguousPrograms,
		"unresolved_programs": stats.UnresolvedPrograms,
		"program_defaults":    stats.ProgramDefaults,
		"summer_collisions":   stats.SummerCollisions,
		"missing_identities":  stats.MissingIdentities,
	} {
		m.dataQuality.WithLabelValues(condition).Add(float64(n))
	}
	atomic.StoreInt64(&m.lastRunOutputs, int64(stats.OutputRecords()))
	atomic.AddUint64(&m.droppedEvents, uint64(stats.EventsDropped))
}

// Snapshot returns aggregated metrics for the JSON summary endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.MetricsSnapshot{
		RunsTotal:                atomic.LoadUint64(&m.runCount),
		RunsFailed:               atomic.LoadUint64(&m.runFailedCount),
		LastRunDurationMs:        float64(atomic.LoadInt64(&m.lastRunDuration)) / float64(time.Millisecond),
		LastRunOutputRecords:     int(atomic.LoadInt64(&m.lastRunOutputs)),
		EventsDroppedTotal:       atomic.LoadUint64(&m.droppedEvents),
		CacheHitRatio:            cacheRatio,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
