package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/pkg/metrics"
)

// UnmatchedRoute labels requests that hit no registered route, so record ids in
// unknown paths never become label values.
const UnmatchedRoute = "unmatched"

// Metrics records latency and outcome of every console API request by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		status := c.Writer.Status()

		metrics.APILatency.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		metrics.APIRequests.WithLabelValues(route, RequestOutcome(status)).Inc()
	}
}

// RequestOutcome classifies a response status. A 428 means the operator has not yet
// confirmed a destructive action.
func RequestOutcome(status int) string {
	switch {
	case status == http.StatusPreconditionRequired:
		return "confirmation_required"
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return "denied"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}
