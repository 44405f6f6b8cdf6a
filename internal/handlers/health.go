package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/monitoring"
	"github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/response"
)

// HealthHandler serves the liveness and readiness probes of the console.
type HealthHandler struct {
	manager *monitoring.HealthManager
}

func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// GET /health and /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	writeHealthReport(c, h.manager.EvaluateReadiness(requestContext(c)))
}

// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	writeHealthReport(c, h.manager.EvaluateLiveness(requestContext(c)))
}

func writeHealthReport(c *gin.Context, report monitoring.HealthReport) {
	if !report.Success {
		response.ErrorWithData(c, errors.New("UNHEALTHY", "Console unavailable", http.StatusServiceUnavailable), report)
		return
	}
	response.Success(c, http.StatusOK, report)
}
