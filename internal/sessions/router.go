package sessions

import "github.com/gin-gonic/gin"

func SetupSessionRoutes(rg *gin.RouterGroup, controller *Controller) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", controller.Begin)
		sessions.GET("/:id", controller.GetState)
		sessions.DELETE("/:id", controller.Abandon)
		sessions.POST("/:id/search", controller.SetSearch)
		sessions.POST("/:id/class", controller.SelectClass)
		sessions.POST("/:id/seats", controller.SelectSeats)
		sessions.PUT("/:id/passengers/:index", controller.SetPassenger)
		sessions.PUT("/:id/contact", controller.SetContact)
	}
}
