package inventory

import (
	"github.com/gin-gonic/gin"
)

func SetupInventoryRoutes(rg *gin.RouterGroup, controller *Controller) {
	schedules := rg.Group("/schedules")
	{
		schedules.GET("/:id/seats", controller.GetSeatMap) // GET /api/v1/schedules/:id/seats?class=Economy
	}
}
