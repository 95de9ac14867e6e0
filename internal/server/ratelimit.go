package server

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for dropping buckets of clients that went quiet.
const (
	DefaultLimiterCleanupInterval = 5 * time.Minute
	DefaultLimiterIdleTimeout     = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// RateLimiter hands out one token bucket per client key.
type RateLimiter struct {
	limiters sync.Map // string -> *limiterEntry
	limit    rate.Limit
	burst    int
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateLimiter allows requestsPerSecond sustained with the given burst per client.
// A non-positive rate disables limiting.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limit: limit, burst: burst, now: time.Now, stop: make(chan struct{})}
}

// Allow reports whether a request from key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	e := rl.entry(key)
	e.lastSeen.Store(rl.now().UnixNano())
	return e.limiter.Allow()
}

func (rl *RateLimiter) entry(key string) *limiterEntry {
	if v, ok := rl.limiters.Load(key); ok {
		return v.(*limiterEntry)
	}
	v, _ := rl.limiters.LoadOrStore(key, &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)})
	return v.(*limiterEntry)
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	n := 0
	rl.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Evict drops clients not seen within maxIdle and returns how many were removed.
func (rl *RateLimiter) Evict(maxIdle time.Duration) int {
	cutoff := rl.now().Add(-maxIdle).UnixNano()
	removed := 0
	rl.limiters.Range(func(k, v any) bool {
		if v.(*limiterEntry).lastSeen.Load() < cutoff {
			rl.limiters.Delete(k)
			removed++
		}
		return true
	})
	return removed
}

// StartCleanup evicts idle clients every interval until Stop is called.
func (rl *RateLimiter) StartCleanup(interval, maxIdle time.Duration) {
	if interval <= 0 {
		interval = DefaultLimiterCleanupInterval
	}
	if maxIdle <= 0 {
		maxIdle = DefaultLimiterIdleTimeout
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-rl.stop:
				return
			case <-ticker.C:
				if n := rl.Evict(maxIdle); n > 0 {
					slog.Debug("Evicted idle rate limiters", "removed", n, "remaining", rl.Len())
				}
			}
		}
	}()
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
