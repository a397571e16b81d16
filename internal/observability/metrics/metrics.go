// Package metrics provides Prometheus instrumentation for launchcache.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled     bool
	serviceName string
	register    sync.Once

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Cache policy metrics
	cacheLookupsTotal   *prometheus.CounterVec
	cacheFallbacksTotal *prometheus.CounterVec

	// Remote API metrics
	remoteRequestsTotal *prometheus.CounterVec
	remoteDuration      *prometheus.HistogramVec
)

// Init initializes the metrics system. Collectors are registered once per process
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		return
	}

	register.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)

		httpDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchcache_cache_lookups_total",
				Help: "Cache lookups by domain and result (hit, miss, expired)",
			},
			[]string{"domain", "result"},
		)

		cacheFallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchcache_cache_fallbacks_total",
				Help: "Network failures answered from cache, by domain and error kind",
			},
			[]string{"domain", "reason"},
		)

		remoteRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchcache_remote_requests_total",
				Help: "Requests sent to the SpaceX API",
			},
			[]string{"endpoint", "status"},
		)

		remoteDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launchcache_remote_request_duration_seconds",
				Help:    "SpaceX API latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Enabled returns whether metrics are enabled
func Enabled() bool {
	return enabled
}

// ServiceName returns the configured service name for metric labels
func ServiceName() string {
	return serviceName
}
