package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler) {
	users := api.Group("/users")
	{
		users.GET("", handler.List)
		users.POST("", handler.Create)
		users.GET("/available-devices", handler.AvailableDevices)
		users.PUT("/:id", handler.Update)
		users.DELETE("/:id", handler.Delete)
		users.PUT("/:id/device", handler.AssignDevice)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/work", handler.Report)
		reports.GET("/work/export", handler.ExportReport)
	}
}
