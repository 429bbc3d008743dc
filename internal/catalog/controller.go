package catalog

import (
	"errors"
	"net/http"
	"time"

	"shipline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Search handles GET /api/v1/schedules/search?from=<portID>&to=<portID>&date=2025-06-01
func (c *Controller) Search(ctx *gin.Context) {
	from, err := uuid.Parse(ctx.Query("from"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid departure port", nil, nil)
		return
	}
	to, err := uuid.Parse(ctx.Query("to"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid arrival port", nil, nil)
		return
	}
	date, err := time.Parse("2006-01-02", ctx.Query("date"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil, nil)
		return
	}

	schedules, err := c.service.Search(ctx.Request.Context(), SearchCriteria{
		DeparturePortID: from,
		ArrivalPortID:   to,
		Date:            date,
	})
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "schedule search failed", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "schedules retrieved", schedules, nil)
}

// GetSchedule handles GET /api/v1/schedules/:id
func (c *Controller) GetSchedule(ctx *gin.Context) {
	schedule, err := c.service.GetSchedule(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "schedule not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "failed to get schedule", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "schedule retrieved", schedule, nil)
}

// GetShip handles GET /api/v1/ships/:id
func (c *Controller) GetShip(ctx *gin.Context) {
	ship, err := c.service.GetShip(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "ship not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "failed to get ship", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "ship retrieved", ship, nil)
}

// ListPorts handles GET /api/v1/ports
func (c *Controller) ListPorts(ctx *gin.Context) {
	ports, err := c.service.ListPorts(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "failed to list ports", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "ports retrieved", ports, nil)
}
