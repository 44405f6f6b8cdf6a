package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/logger"
	"github.com/charlesng35/fenceadmin/pkg/response"
)

var errTooManyRequests = errors.New("RATE_LIMITED", "Too many attempts, please wait and try again", http.StatusTooManyRequests)

// RateLimit limits requests per (clientIP, route) within a fixed window. A nil store
// falls back to process memory. When the store fails the request is let through.
func RateLimit(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	if store == nil {
		store = NewMemoryRateStore()
	}

	return func(c *gin.Context) {
		if maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		count, ttl, err := store.Increment(c.Request.Context(), c.ClientIP()+"|"+route, window)
		if err != nil {
			logger.WithModule("http").Warn("rate limit store failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxRequests-count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))

		if count > maxRequests {
			response.Error(c, errTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}
