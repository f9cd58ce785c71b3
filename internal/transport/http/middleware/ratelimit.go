package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "library-lending/internal/transport/http/response"
)

// RateLimit is one token bucket for the whole server.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		tooMany(c)
	}
}

// RateLimitPerIP keeps a bucket per client IP.
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	return RateLimitBy(func(c *gin.Context) string { return c.ClientIP() }, rps, burst)
}

// Every spreads n requests over d, e.g. Every(5, time.Minute).
func Every(n int, d time.Duration) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(d / time.Duration(n))
}

// RateLimitBy keeps a bucket per key. Buckets idle for ten minutes are dropped.
func RateLimitBy(key func(*gin.Context) string, rps rate.Limit, burst int) gin.HandlerFunc {
	type entry struct {
		lim  *rate.Limiter
		seen time.Time
	}
	var (
		mu      sync.Mutex
		buckets = make(map[string]*entry)
		swept   = time.Now()
	)
	const idle = 10 * time.Minute

	return func(c *gin.Context) {
		k := key(c)
		now := time.Now()

		mu.Lock()
		if now.Sub(swept) > idle {
			for bk, e := range buckets {
				if now.Sub(e.seen) > idle {
					delete(buckets, bk)
				}
			}
			swept = now
		}
		e, ok := buckets[k]
		if !ok {
			e = &entry{lim: rate.NewLimiter(rps, burst)}
			buckets[k] = e
		}
		e.seen = now
		allow := e.lim.Allow()
		mu.Unlock()

		if allow {
			c.Next()
			return
		}
		tooMany(c)
	}
}

func tooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeTooManyRequests, "too many requests"))
}
