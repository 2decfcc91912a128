package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter limits requests per client IP per minute. With a Redis client
// it uses a shared fixed window so the limit holds across gateway replicas;
// without one it falls back to an in-process sliding window.
func RateLimiter(requestsPerMinute int, rdb *redis.Client) gin.HandlerFunc {
	if rdb != nil {
		return redisRateLimiter(requestsPerMinute, rdb)
	}
	return memoryRateLimiter(requestsPerMinute)
}

// rateLimiter is a simple in-memory sliding window keyed by IP.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		windows: make(map[string][]time.Time),
	}
}

func memoryRateLimiter(requestsPerMinute int) gin.HandlerFunc {
	limiter := newRateLimiter()
	return func(c *gin.Context) {
		ip := c.ClientIP()

		limiter.mu.Lock()
		defer limiter.mu.Unlock()

		now := time.Now()
		windowStart := now.Add(-time.Minute)

		// Remove timestamps older than 1 minute
		var validTimes []time.Time
		for _, t := range limiter.windows[ip] {
			if t.After(windowStart) {
				validTimes = append(validTimes, t)
			}
		}
		limiter.windows[ip] = validTimes

		if len(validTimes) >= requestsPerMinute {
			tooManyRequests(c, requestsPerMinute)
			return
		}

		limiter.windows[ip] = append(limiter.windows[ip], now)
		c.Next()
	}
}

func redisRateLimiter(requestsPerMinute int, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), time.Now().Unix()/60)

		count, err := rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			// A limiter outage must not take down login; fail open.
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(c.Request.Context(), key, time.Minute)
		}

		if count > int64(requestsPerMinute) {
			tooManyRequests(c, requestsPerMinute)
			return
		}

		c.Next()
	}
}

func tooManyRequests(c *gin.Context, limit int) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":            "Rate limit exceeded",
		"limit":            limit,
		"per_minute":       1,
		"retry_after_secs": 60,
	})
	c.Abort()
}
