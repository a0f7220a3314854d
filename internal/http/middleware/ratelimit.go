package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
)

// RateLimiter provides per-client rate limiting using a token bucket.
// It guards the endpoints that place phone calls.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // max tokens
	now     func() time.Time
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewRateLimiter creates a rate limiter allowing rate requests/sec with the
// given burst size per client.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether a request from key is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), lastTime: now}
		rl.buckets[key] = b
	}

	elapsed := now.Sub(b.lastTime).Seconds()
	b.tokens += elapsed * rl.rate
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.lastTime = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Evict drops buckets idle since before cutoff.
func (rl *RateLimiter) Evict(cutoff time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for key, b := range rl.buckets {
		if b.lastTime.Before(cutoff) {
			delete(rl.buckets, key)
			n++
		}
	}
	return n
}

// Middleware rejects requests over the limit with 429 and a JSON error.
// Clients are keyed by X-Real-Ip (set by chi's RealIP) or RemoteAddr.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if xri := r.Header.Get("X-Real-Ip"); xri != "" {
			key = xri
		}
		if !rl.Allow(key) {
			retry := 1
			if rl.rate > 0 && rl.rate < 1 {
				retry = int(1/rl.rate + 0.5)
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit returns a middleware with its own limiter. Idle buckets are
// evicted on later requests rather than by a background goroutine.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	var (
		mu        sync.Mutex
		lastSweep = time.Now()
	)
	return func(next http.Handler) http.Handler {
		limited := limiter.Middleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			if now := time.Now(); now.Sub(lastSweep) > 5*time.Minute {
				lastSweep = now
				limiter.Evict(now.Add(-10 * time.Minute))
			}
			mu.Unlock()
			limited.ServeHTTP(w, r)
		})
	}
}
