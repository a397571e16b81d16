// Package ratelimit throttles API requests per client address with token buckets.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/config"
	"github.com/pendergraft/launchcache/internal/middleware/realip"
)

// exemptPaths are probes and scrapes that must never be throttled
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/healthz": {},
	"/readyz":  {},
	"/metrics": {},
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter holds one token bucket per client address
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a limiter and starts its eviction loop. Call Stop to end it
func New(cfg config.RateLimitConfig) *Limiter {
	idle := time.Duration(cfg.CleanupMinutes) * time.Minute
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}

	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(cfg.RequestsPerMin) / 60),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go l.evictLoop()
	return l
}

// Stop ends the eviction loop. It is safe to call more than once
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stopCh:
			return
		}
	}
}

func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	for ip, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}

func (l *Limiter) bucketFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Handler rejects requests over the client's budget with 429 and a
// Retry-After telling the client when the next token is due
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := exemptPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		res := l.bucketFor(realip.GetClientIP(r)).Reserve()
		delay := res.Delay()
		if !res.OK() || delay > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(res.OK(), delay)))
			apperror.WriteBody(w, http.StatusTooManyRequests, apperror.Body{
				Code:    apperror.CodeRateLimitExceeded,
				Message: "Too many requests. Please try again later.",
				Icon:    "hourglass",
				Color:   "orange",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// maxRetryAfter caps the advertised wait. A zero rate never refills, so its
// reservation delay is rate.InfDuration
const maxRetryAfter = 60 * time.Second

func retryAfterSeconds(ok bool, delay time.Duration) int {
	if !ok || delay == rate.InfDuration || delay > maxRetryAfter {
		return int(maxRetryAfter / time.Second)
	}
	return int(math.Ceil(delay.Seconds()))
}

// Middleware returns the limiter's handler, or a pass-through when rate
// limiting is disabled. The returned stop func ends the eviction loop
func Middleware(cfg config.RateLimitConfig) (func(http.Handler) http.Handler, func()) {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }, func() {}
	}
	l := New(cfg)
	return l.Handler, l.Stop
}
