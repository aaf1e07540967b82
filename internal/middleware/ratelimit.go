package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/m1z23r/drift/pkg/drift"
	"golang.org/x/time/rate"
)

const (
	rateLimiterEntries = 10000
	rateLimiterIdleTTL = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client IP. Idle buckets fall out of
// the LRU after rateLimiterIdleTTL.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	proxies *ProxyTrust

	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter keys buckets by client IP as resolved by proxies. A nil
// proxies keys on the connection's peer address only.
func NewRateLimiter(perSecond float64, burst int, proxies *ProxyTrust) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		proxies:  proxies,
		limiters: expirable.NewLRU[string, *rate.Limiter](rateLimiterEntries, nil, rateLimiterIdleTTL),
	}
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters.Get(ip); ok {
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters.Add(ip, l)
	return l
}

func (rl *RateLimiter) Middleware() drift.HandlerFunc {
	return func(c *drift.Context) {
		ip := rl.proxies.ClientIP(c.Request)
		if !rl.limiterFor(ip).Allow() {
			slog.Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", c.Request.URL.Path),
			)
			c.Response.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			_ = c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "rate_limit_exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.limit <= 0 {
		return 60
	}
	sec := int(math.Ceil(1.0 / float64(rl.limit)))
	if sec < 1 {
		sec = 1
	}
	return sec
}
