package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"post-board/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CheckRateLimit counts one hit for id against resource in a fixed window.
// It reports whether the hit is within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// INCR and set EXPIRE if new
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return true, err
		}
	}
	return cnt <= int64(limit), nil
}

// RateLimit limits each client IP to limit requests per window on the routes
// it guards. Redis failures let the request through.
func RateLimit(rdb *redis.Client, resource string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		allowed, err := CheckRateLimit(ctx, rdb, resource, "ip:"+c.ClientIP(), limit, window)
		if err != nil {
			zap.S().Warnf("Rate limiter unavailable, allowing request: %v", err)
		}
		if !allowed {
			appErr := utils.NewAppError(utils.ErrTooManyRequests, "Too many requests, try again later", nil)
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": appErr.Message})
			return
		}
		c.Next()
	}
}
