package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/handlers"
)

func registerAuthRoutes(api *gin.RouterGroup, handler *handlers.AuthHandler) {
	group := api.Group("/auth")
	{
		group.GET("/me", handler.Me)
		group.POST("/logout", handler.Logout)
		group.PUT("/company", handler.SelectCompany)
	}
}
