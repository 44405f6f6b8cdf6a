package api

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/fenceadmin/internal/handlers"
	"github.com/charlesng35/fenceadmin/internal/monitoring"
	"github.com/charlesng35/fenceadmin/internal/monitoring/checks"
	"github.com/charlesng35/fenceadmin/internal/realtime"
)

func registerHealthRoutes(r *gin.Engine, deps Dependencies) {
	if !deps.Config.Monitoring.Health.Enabled {
		return
	}

	manager := monitoring.NewHealthManager(0)
	manager.RegisterLiveness(monitoring.NewCheck("console", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	if deps.DB != nil {
		manager.RegisterReadiness(checks.Database(deps.DB))
	}
	manager.RegisterReadiness(checks.AdminSession(deps.Sessions))
	if deps.Hub != nil {
		manager.RegisterReadiness(checks.Realtime(deps.Hub, realtime.ViewStreams))
	}

	health := handlers.NewHealthHandler(manager)
	r.GET("/health", health.Ready)
	r.GET("/health/live", health.Live)
	r.GET("/health/ready", health.Ready)
}

func registerMetricsRoutes(r *gin.Engine, deps Dependencies) {
	if !deps.Config.Monitoring.Prometheus.Enabled {
		return
	}
	endpoint := strings.TrimSpace(deps.Config.Monitoring.Prometheus.Endpoint)
	if endpoint == "" {
		endpoint = "/metrics"
	}
	r.GET(endpoint, gin.WrapH(promhttp.Handler()))
}
