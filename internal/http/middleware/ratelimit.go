package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	bucketSweepInterval = 5 * time.Minute
	bucketMaxIdle       = 10 * time.Minute
)

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	mu    sync.Mutex
	seen  map[string]*tokenBucket
	rate  float64 // tokens added per second
	burst int     // bucket capacity
	now   func() time.Time
}

type tokenBucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a limiter allowing rate requests/sec with the given
// burst size per IP. A background sweep evicts buckets idle for a while.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		seen:  make(map[string]*tokenBucket),
		rate:  rate,
		burst: burst,
		now:   time.Now,
	}
	go rl.sweep()
	return rl
}

// Allow reports whether a request from ip fits the rate limit, consuming one
// token when it does.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.seen[ip]
	if !ok {
		b = &tokenBucket{tokens: float64(rl.burst), last: now}
		rl.seen[ip] = b
	}

	b.tokens += now.Sub(b.last).Seconds() * rl.rate
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(bucketSweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		cutoff := rl.now().Add(-bucketMaxIdle)
		for ip, b := range rl.seen {
			if b.last.Before(cutoff) {
				delete(rl.seen, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// clientIP resolves the bucket key for a request. X-Real-Ip wins when a
// proxy set it; otherwise the port is stripped so one client maps to one
// bucket across connections.
func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit returns an HTTP middleware that rejects requests exceeding the
// configured rate with 429 Too Many Requests.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
