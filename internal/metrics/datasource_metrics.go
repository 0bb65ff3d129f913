package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DataSourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "datasource_requests_total",
		Help:      "Market data requests by source, operation and status",
	}, []string{"source", "operation", "status"})

	DataSourceLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "datasource_request_duration_seconds",
		Help:      "Latency of market data requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	CacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Cache lookups by cache name and result",
	}, []string{"cache", "result"})

	CacheHitRatio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_hit_ratio",
		Help:      "Running hit ratio per cache",
	}, []string{"cache"})
)

var (
	cacheMu     sync.Mutex
	cacheCounts = map[string]*[2]float64{}
)

// RecordDataSourceRequest records one market data call.
func RecordDataSourceRequest(source, operation, status string, durationSeconds float64) {
	DataSourceRequestsTotal.WithLabelValues(source, operation, status).Inc()
	DataSourceLatency.WithLabelValues(source).Observe(durationSeconds)
}

// RecordCacheLookup records a hit or miss and refreshes the hit ratio gauge.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequestsTotal.WithLabelValues(cache, result).Inc()

	cacheMu.Lock()
	counts, ok := cacheCounts[cache]
	if !ok {
		counts = &[2]float64{}
		cacheCounts[cache] = counts
	}
	if hit {
		counts[0]++
	}
	counts[1]++
	ratio := counts[0] / counts[1]
	cacheMu.Unlock()

	CacheHitRatio.WithLabelValues(cache).Set(ratio)
}
