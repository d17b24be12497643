package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation on a private registry.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheHitRatio    prometheus.Gauge
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	feedPages        *prometheus.CounterVec
	staleDiscards    prometheus.Counter
	feedSessions     prometheus.Gauge
	analyticsEvents  *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors.
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

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "data_api_request_duration_seconds",
		Help:    "Duration of calls to the data API",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	feedPages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_pages_total",
		Help: "Listing pages served",
	}, []string{"channel"})

	staleDiscards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_stale_pages_discarded_total",
		Help: "Pages dropped because the filter changed while they were in flight",
	})

	feedSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feed_sessions_active",
		Help: "Open live feed connections",
	})

	analyticsEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_events_total",
		Help: "Page view events by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamDuration, cacheLatency, cacheWrite, cacheHitRatio,
		cacheHits, cacheMisses, feedPages, staleDiscards, feedSessions, analyticsEvents, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		upstreamDuration: upstreamDuration,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		feedPages:        feedPages,
		staleDiscards:    staleDiscards,
		feedSessions:     feedSessions,
		analyticsEvents:  analyticsEvents,
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

// Registry returns the private registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveUpstream matches directus.Observer and records one data API exchange.
func (m *MetricsService) ObserveUpstream(operation string, status int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil && status == 0:
		outcome = "transport_error"
	case err != nil:
		outcome = strconv.Itoa(status)
	}
	m.upstreamDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// RecordCacheOperation records a hit or miss and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordFeedPage counts a listing page delivered over channel ("http", "ws").
func (m *MetricsService) RecordFeedPage(channel string) {
	if m == nil {
		return
	}
	m.feedPages.WithLabelValues(channel).Inc()
}

// RecordStaleDiscard counts a page dropped for a superseded filter.
func (m *MetricsService) RecordStaleDiscard() {
	if m == nil {
		return
	}
	m.staleDiscards.Inc()
}

// SessionOpened and SessionClosed track live feed connections.
func (m *MetricsService) SessionOpened() {
	if m == nil {
		return
	}
	m.feedSessions.Inc()
}

func (m *MetricsService) SessionClosed() {
	if m == nil {
		return
	}
	m.feedSessions.Dec()
}

// RecordAnalyticsEvent counts page views by outcome (published, logged, dropped, failed).
func (m *MetricsService) RecordAnalyticsEvent(outcome string) {
	if m == nil {
		return
	}
	m.analyticsEvents.WithLabelValues(outcome).Inc()
}
