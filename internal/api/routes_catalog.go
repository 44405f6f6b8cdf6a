package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/fenceadmin/internal/handlers"
)

func registerCatalogRoutes(api *gin.RouterGroup, devices *handlers.DeviceHandler, locations *handlers.LocationHandler, companies *handlers.CompanyHandler) {
	deviceRoutes := api.Group("/devices")
	{
		deviceRoutes.GET("", devices.List)
		deviceRoutes.POST("", devices.Register)
		deviceRoutes.DELETE("/:id", devices.Delete)
	}

	locationRoutes := api.Group("/locations")
	{
		locationRoutes.GET("", locations.List)
		locationRoutes.POST("", locations.Create)
		locationRoutes.DELETE("/:id", locations.Delete)
	}

	companyRoutes := api.Group("/companies")
	{
		companyRoutes.GET("", companies.List)
		companyRoutes.POST("", companies.Create)
	}
}
