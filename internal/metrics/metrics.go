// Package metrics exposes Prometheus collectors for the dashboard service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectdash_http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projectdash_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	cacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectdash_cache_requests_total",
			Help: "Query cache lookups, labeled by query key and result (hit/miss).",
		},
		[]string{"key", "result"},
	)

	cacheLoadErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectdash_cache_load_errors_total",
			Help: "Query cache loads that failed, labeled by query key.",
		},
		[]string{"key"},
	)

	storeFetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projectdash_store_fetch_duration_seconds",
			Help:    "Histogram of project store fetch latencies, labeled by outcome.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"outcome"},
	)

	projectsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectdash_projects_created_total",
			Help: "Projects created, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	projectStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "projectdash_projects_by_status",
			Help: "Project count per status as of the last summary.",
		},
		[]string{"status"},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectdash_exports_total",
			Help: "Snapshot exports, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	rateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projectdash_ratelimit_rejections_total",
			Help: "Write requests rejected by the rate limiter.",
		},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveCacheHit records a cache hit for key.
func ObserveCacheHit(key string) {
	cacheRequestsTotal.WithLabelValues(key, "hit").Inc()
}

// ObserveCacheMiss records a cache miss for key.
func ObserveCacheMiss(key string) {
	cacheRequestsTotal.WithLabelValues(key, "miss").Inc()
}

// ObserveCacheLoadError records a failed cache load for key.
func ObserveCacheLoadError(key string) {
	cacheLoadErrorsTotal.WithLabelValues(key).Inc()
}

// ObserveStoreFetch records the latency of one store fetch.
func ObserveStoreFetch(duration time.Duration, err error) {
	storeFetchDurationSeconds.WithLabelValues(outcome(err)).Observe(duration.Seconds())
}

// ObserveProjectCreated counts one create attempt, labeled success or error.
// Failures before the insert (id generation, validation) count as errors.
func ObserveProjectCreated(err error) {
	projectsCreatedTotal.WithLabelValues(outcome(err)).Inc()
}

// OtherStatus labels projects whose status is outside the enumerated set.
const OtherStatus = "other"

var statusMu sync.Mutex

// SetStatusCounts sets one gauge series per label in counts. Callers pass the
// full label set every time; series are never removed, so a scrape always
// sees every label.
func SetStatusCounts(counts map[string]int) {
	statusMu.Lock()
	defer statusMu.Unlock()
	for status, n := range counts {
		projectStatus.WithLabelValues(status).Set(float64(n))
	}
}

// ObserveExport counts one export attempt.
func ObserveExport(err error) {
	exportsTotal.WithLabelValues(outcome(err)).Inc()
}

// ObserveRateLimitRejection counts one rejected write.
func ObserveRateLimitRejection() {
	rateLimitRejectionsTotal.Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
