package middleware

import (
	"context"
	"time"

	"prepboard/internal/common/ratelimit"
	pkgerrors "prepboard/pkg/errors"
	"prepboard/pkg/utils/logger"
	"prepboard/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter counts hits against a key.
type Limiter interface {
	Allow(ctx context.Context, key string, max int, window time.Duration) error
}

// RateLimitPolicy caps requests per client IP and per authenticated user.
type RateLimitPolicy struct {
	Window  time.Duration
	UserMax int
	IPMax   int
}

// RateLimitMiddleware enforces per-route rate limiting. The per-user cap only
// applies when it runs after AuthMiddleware. Requests pass when the limiter's
// cache is failing.
func RateLimitMiddleware(limiter Limiter, routeKey string, policy RateLimitPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		if policy.IPMax > 0 {
			key := ratelimit.Key("ip", c.ClientIP(), routeKey)
			if !allow(c, limiter, key, policy.IPMax, policy.Window) {
				return
			}
		}

		if policy.UserMax > 0 {
			if userID, ok := UserID(c); ok {
				key := ratelimit.Key("user", userID, routeKey)
				if !allow(c, limiter, key, policy.UserMax, policy.Window) {
					return
				}
			}
		}

		c.Next()
	}
}

func allow(c *gin.Context, limiter Limiter, key string, max int, window time.Duration) bool {
	err := limiter.Allow(c.Request.Context(), key, max, window)
	if err == nil {
		return true
	}
	if pkgerrors.Is(err, pkgerrors.CacheError) {
		logger.Warn(c.Request.Context(), "rate limit skipped", zap.String("key", key), zap.Error(err))
		return true
	}
	response.AbortWithError(c, err)
	return false
}
