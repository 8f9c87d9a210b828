package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fraudguard/riskengine/pkg/common"
	"github.com/fraudguard/riskengine/pkg/logger"
	"github.com/fraudguard/riskengine/pkg/ratelimit"
)

// RateLimit enforces the limiter on the matched route. Authenticated callers
// are keyed by user id, anonymous ones by client IP. A Redis outage fails
// open: the request proceeds and the error is logged.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		identity := c.GetString(UserIDKey)
		identityType := ratelimit.IdentityAuthenticated
		if identity == "" {
			identity = c.ClientIP()
			identityType = ratelimit.IdentityAnonymous
		}

		rule := limiter.RuleFor(endpoint, identityType)
		result, err := limiter.Allow(c.Request.Context(), endpoint, identity, rule, identityType)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("rate limit check failed, allowing request",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Writer.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Writer.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.Writer.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			common.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}
