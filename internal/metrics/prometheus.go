package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Exchange API metrics
	APICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bingx_api_calls_total",
			Help: "Total number of BingX API calls that reached the network",
		},
		[]string{"method", "path", "status"}, // status: success|error
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bingx_api_errors_total",
			Help: "Total number of failed BingX API calls by error kind",
		},
		[]string{"kind"},
	)

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bingx_api_latency_seconds",
			Help:    "BingX API round-trip latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Cache metrics
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bingx_cache_lookups_total",
			Help: "Total number of response cache lookups",
		},
		[]string{"backend", "result"}, // result: hit|miss|expired|error
	)

	CacheWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bingx_cache_writes_total",
			Help: "Total number of response cache writes",
		},
		[]string{"backend", "status"},
	)

	CacheDegraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bingx_cache_degraded_total",
			Help: "Total number of calls that used the cache through a degraded path",
		},
		[]string{"reason"},
	)
)

var registerOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(APICalls)
		prometheus.MustRegister(APIErrors)
		prometheus.MustRegister(APILatency)

		prometheus.MustRegister(CacheLookups)
		prometheus.MustRegister(CacheWrites)
		prometheus.MustRegister(CacheDegraded)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPICall records a network round trip and, on failure, its error kind.
func RecordAPICall(method, path string, latency time.Duration, errKind string) {
	status := "success"
	if errKind != "" {
		status = "error"
		APIErrors.WithLabelValues(errKind).Inc()
	}

	APICalls.WithLabelValues(method, path, status).Inc()
	APILatency.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordCacheLookup records the outcome of a cache read
func RecordCacheLookup(backend, result string) {
	CacheLookups.WithLabelValues(backend, result).Inc()
}

// RecordCacheWrite records a cache write
func RecordCacheWrite(backend string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CacheWrites.WithLabelValues(backend, status).Inc()
}

// RecordCacheDegraded records a call that used the cache through a degraded path
func RecordCacheDegraded(reason string) {
	CacheDegraded.WithLabelValues(reason).Inc()
}
