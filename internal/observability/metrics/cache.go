package metrics

import "time"

// Cache lookup results
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultExpired = "expired"
	ResultBypass  = "bypass"
)

// CacheLookup records one cache decision for a domain
func CacheLookup(domain, result string) {
	if !enabled {
		return
	}
	cacheLookupsTotal.WithLabelValues(domain, result).Inc()
}

// CacheFallback records a network failure that was served from cache
func CacheFallback(domain, reason string) {
	if !enabled {
		return
	}
	cacheFallbacksTotal.WithLabelValues(domain, reason).Inc()
}

// RemoteRequest records one call to the upstream API
func RemoteRequest(endpoint, status string, d time.Duration) {
	if !enabled {
		return
	}
	remoteRequestsTotal.WithLabelValues(endpoint, status).Inc()
	remoteDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}
