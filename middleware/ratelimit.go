package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit throttles each client IP with its own token bucket so one
// script-heavy client cannot drown out everyone else's workout submissions.
// r is the sustained rate in requests per second, b the burst allowance.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	buckets := &sync.Map{}

	// Drop buckets for clients that went quiet.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-10 * time.Minute)
			buckets.Range(func(k, v interface{}) bool {
				if v.(*clientBucket).lastSeen.Before(cutoff) {
					buckets.Delete(k)
				}
				return true
			})
		}
	}()

	bucketFor := func(ip string) *rate.Limiter {
		v, _ := buckets.LoadOrStore(ip, &clientBucket{limiter: rate.NewLimiter(r, b)})
		cb := v.(*clientBucket)
		cb.lastSeen = time.Now()
		return cb.limiter
	}

	return func(c *gin.Context) {
		if !bucketFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
