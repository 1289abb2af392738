package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/villahermosa/clinic-platform/internal/api/respond"
)

// visitor is one caller's token bucket.
type visitor struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimiter throttles unauthenticated callers per IP. The public
// booking form is the only surface it fronts.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     float64
	burst    float64
}

// NewRateLimiter allows rate requests per second with the given burst
// per caller IP. Idle buckets are evicted in the background.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		burst:    float64(burst),
	}
	go rl.evictIdle(10 * time.Minute)
	return rl
}

// Allow reports whether a request from ip fits the budget and spends a
// token when it does.
func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &visitor{tokens: rl.burst - 1, lastSeen: now}
		return true
	}

	v.tokens += now.Sub(v.lastSeen).Seconds() * rl.rate
	if v.tokens > rl.burst {
		v.tokens = rl.burst
	}
	v.lastSeen = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

func (rl *RateLimiter) evictIdle(after time.Duration) {
	ticker := time.NewTicker(after / 2)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-after)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if v.lastSeen.Before(cutoff) {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects over-budget requests with 429 in the standard
// response envelope.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				respond.Error(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP trusts the RealIP middleware when present and falls back to
// the connection address without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
