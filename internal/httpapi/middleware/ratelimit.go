package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docbot-ai/docbot/internal/common"
	"github.com/docbot-ai/docbot/internal/store/redisstore"
)

// RateLimit caps requests per client IP per minute using a Redis counter.
// Redis being down fails open.
func RateLimit(store *redisstore.Store, perMinute int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()
		ok, err := store.Allow(c.Request.Context(), key, perMinute, time.Minute)
		if err != nil {
			log.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			common.Fail(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
