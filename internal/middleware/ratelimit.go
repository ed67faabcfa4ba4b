package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Rate limiter defaults for the submission endpoint.
const (
	DefaultRateLimit  = 5
	DefaultRateWindow = time.Minute
)

// RateLimiter is a fixed-window per-address limiter. Counters live in
// process memory and reset on restart.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per address
// per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		visitors: map[string]*visitor{},
	}
}

// Middleware rejects over-quota requests with 429 and stamps every response
// with limit/remaining/reset headers.
func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, ok := rl.take(clientKey(r))

			headers := w.Header()
			headers.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retryAfter := max(int(resetAt.Sub(rl.now()).Seconds()), 1)
				headers.Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// take consumes one slot for key and reports the remaining quota and window
// reset time. Counter updates are serialized so concurrent hits from the
// same address never lose updates.
func (rl *RateLimiter) take(key string) (remaining int, resetAt time.Time, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v := rl.visitors[key]
	if v == nil || !now.Before(v.resetAt) {
		v = &visitor{count: 0, resetAt: now.Add(rl.window)}
		rl.visitors[key] = v
	}

	if v.count >= rl.limit {
		return 0, v.resetAt, false
	}
	v.count++
	return rl.limit - v.count, v.resetAt, true
}

// clientKey derives the originating address. RemoteAddr is already the real
// client IP when the RealIP middleware runs earlier in the chain.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
