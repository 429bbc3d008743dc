package catalog

import "github.com/gin-gonic/gin"

func SetupCatalogRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.GET("/ports", controller.ListPorts)
	rg.GET("/ships/:id", controller.GetShip)

	schedules := rg.Group("/schedules")
	{
		schedules.GET("/search", controller.Search)
		schedules.GET("/:id", controller.GetSchedule)
	}
}
