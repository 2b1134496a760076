package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheResult is the outcome of one cache lookup.
type CacheResult string

const (
	CacheHit   CacheResult = "hit"
	CacheMiss  CacheResult = "miss"
	CacheError CacheResult = "error"
)

func init() { register(cacheRequestsTotal, cacheFillDuration, cacheInvalidationsTotal) }

var (
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Cache lookups by cache name and result (hit|miss|error).",
		},
		[]string{"cache", "result"},
	)

	cacheFillDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_fill_duration_seconds",
			Help:    "Time spent loading a missed entry from the backing source.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"cache"},
	)

	cacheInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Explicit cache invalidations by cache name.",
		},
		[]string{"cache"},
	)
)

func IncCacheRequest(cacheName string, result CacheResult) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), string(result)).Inc()
}

func ObserveCacheFill(cacheName string, d time.Duration) {
	cacheFillDuration.WithLabelValues(norm(cacheName)).Observe(d.Seconds())
}

func IncCacheInvalidation(cacheName string) {
	cacheInvalidationsTotal.WithLabelValues(norm(cacheName)).Inc()
}
