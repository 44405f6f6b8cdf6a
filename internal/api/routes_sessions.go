package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/handlers"
)

func registerSessionRoutes(api *gin.RouterGroup, handler *handlers.SessionHandler) {
	sessions := api.Group("/sessions")
	{
		sessions.GET("", handler.List)
		sessions.GET("/metadata", handler.Metadata)
		sessions.GET("/export", handler.Export)
		sessions.PUT("/auto-refresh", handler.AutoRefresh)
		sessions.POST("/dismiss", handler.Dismiss)
		sessions.POST("/:id/resolve", handler.Resolve)
		sessions.POST("/:id/force-logout", handler.ForceLogout)
		sessions.DELETE("/:id", handler.Delete)
	}
}
