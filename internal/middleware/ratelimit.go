// ratelimit.go implements per-user rate limiting using token buckets.
//
// Each user gets a rate.Limiter refilling at their hourly budget. Buckets
// for users idle longer than an hour are evicted by a background sweep so
// the map doesn't grow forever.
package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// RateLimiter tracks request rates per user.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	perHour int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter allowing perHour requests per
// user, with a small burst allowance.
func NewRateLimiter(perHour int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		perHour: perHour,
	}
	go rl.cleanup()
	return rl
}

// RateLimit returns Gin middleware that enforces per-user rate limits.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			// No user = nothing to key on (auth middleware handles rejection).
			c.Next()
			return
		}

		b := rl.bucketFor(user.ID)
		if !b.limiter.Allow() {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.perHour))
			c.Header("X-RateLimit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Rate limit exceeded. Try again later.",
				Code:    http.StatusTooManyRequests,
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.perHour))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%.0f", b.limiter.Tokens()))
		c.Next()
	}
}

func (rl *RateLimiter) bucketFor(userID string) *bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[userID]
	if !ok {
		burst := rl.perHour / 10
		if burst < 5 {
			burst = 5
		}
		b = &bucket{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.perHour)/3600), burst),
		}
		rl.buckets[userID] = b
	}
	b.lastSeen = time.Now()
	return b
}

// cleanup evicts buckets idle for over an hour.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for id, b := range rl.buckets {
			if time.Since(b.lastSeen) > time.Hour {
				delete(rl.buckets, id)
			}
		}
		rl.mu.Unlock()
	}
}
