package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paperlens/core/internal/pkg/bark"
	"github.com/redis/go-redis/v9"
)

const (
	rateLimitMax    = 20
	rateLimitWindow = time.Second
)

// RateLimit enforces a per-IP window limit on unauthenticated requests.
// Provider calls are expensive, so the ceiling is deliberately low.
// A non-nil barkSvc gets a throttled push when an IP is blocked.
func RateLimit(rdb *redis.Client, barkSvc *bark.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		windowKey := time.Now().Unix()
		key := fmt.Sprintf("pl:rate_limit:%s:%d", ip, windowKey)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}

		if count == 1 {
			rdb.PExpire(ctx, key, rateLimitWindow+time.Second)
		}

		if count > rateLimitMax {
			if barkSvc != nil {
				go barkSvc.ThrottlePush(ip, c.FullPath())
			}
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":      0,
				"code":    http.StatusTooManyRequests,
				"message": "too many requests, slow down",
			})
			return
		}

		c.Next()
	}
}
