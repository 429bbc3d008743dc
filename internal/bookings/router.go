package bookings

import "github.com/gin-gonic/gin"

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("/commit", controller.Commit)
		bookings.GET("/:code", controller.GetByCode)
		bookings.POST("/:code/payment", controller.ConfirmPayment)
		bookings.POST("/:code/cancel", controller.Cancel)
		bookings.POST("/:code/advance", controller.Advance)
	}
}
