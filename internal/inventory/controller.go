package inventory

import (
	"errors"
	"net/http"

	"shipline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetSeatMap handles GET /api/v1/schedules/:id/seats?class=Economy
func (c *Controller) GetSeatMap(ctx *gin.Context) {
	scheduleID := ctx.Param("id")
	class := ctx.Query("class")
	if class == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "class query parameter is required", nil, nil)
		return
	}

	snap, err := c.service.Snapshot(ctx.Request.Context(), Key{ScheduleID: scheduleID, Class: class})
	if err != nil {
		if errors.Is(err, ErrPoolNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "seat pool not found", nil, err.Error())
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "failed to load seat map", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "seat map retrieved", snap, nil)
}
