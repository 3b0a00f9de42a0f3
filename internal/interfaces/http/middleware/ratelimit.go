package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dukapos/dukapos/internal/infrastructure/ratelimit"
	"github.com/dukapos/dukapos/internal/shared/logger"
	"github.com/dukapos/dukapos/internal/shared/utils"
)

// RateLimiter throttles a route group by client IP through a shared
// sliding-window limiter, so the count stays correct across server
// instances. Limiter failures fail open: a Redis outage must not take
// billing-event ingestion down with it.
type RateLimiter struct {
	limiter ratelimit.Limiter
	policy  ratelimit.Policy
	logger  logger.Interface
}

func NewRateLimiter(limiter ratelimit.Limiter, policy ratelimit.Policy, logger logger.Interface) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		policy:  policy,
		logger:  logger,
	}
}

// Limit returns a Gin middleware that enforces the policy per client IP.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ip:%s", c.ClientIP())

		allowed, err := rl.limiter.Allow(c.Request.Context(), key, rl.policy)
		if err != nil {
			rl.logger.Warnw("rate limit check failed, allowing request",
				"key", key,
				"error", err,
			)
			c.Next()
			return
		}

		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
