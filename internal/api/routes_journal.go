package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/handlers"
)

func registerJournalRoutes(api *gin.RouterGroup, handler *handlers.JournalHandler) {
	api.GET("/journal", handler.List)
}

func registerRealtimeRoutes(api *gin.RouterGroup, handler *handlers.RealtimeHandler) {
	api.GET("/realtime", handler.Stream)
}

func registerSecurityRoutes(api *gin.RouterGroup, handler *handlers.SecurityHandler) {
	api.GET("/security/audit", handler.Audit)
}
