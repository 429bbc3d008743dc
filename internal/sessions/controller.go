package sessions

import (
	"errors"
	"net/http"
	"strconv"

	"shipline/internal/catalog"
	"shipline/internal/inventory"
	"shipline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	manager *Manager
	catalog catalog.Service
}

func NewController(manager *Manager, catalogService catalog.Service) *Controller {
	return &Controller{manager: manager, catalog: catalogService}
}

// Begin handles POST /api/v1/sessions
func (c *Controller) Begin(ctx *gin.Context) {
	s := c.manager.Begin()
	response.RespondJSON(ctx, "success", http.StatusCreated, "session started", gin.H{
		"session_id": s.ID,
	}, nil)
}

// SetSearch handles POST /api/v1/sessions/:id/search
func (c *Controller) SetSearch(ctx *gin.Context) {
	s, ok := c.lookup(ctx)
	if !ok {
		return
	}

	var params SearchParams
	if err := ctx.ShouldBindJSON(&params); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	if err := s.SetSearch(ctx.Request.Context(), params); err != nil {
		c.respondStepError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "search recorded", gin.H{
		"total_passengers": params.TotalPassengers(),
	}, nil)
}

type selectClassRequest struct {
	ScheduleID string `json:"schedule_id" binding:"required,uuid"`
	Class      string `json:"class" binding:"required"`
}

// SelectClass handles POST /api/v1/sessions/:id/class
func (c *Controller) SelectClass(ctx *gin.Context) {
	s, ok := c.lookup(ctx)
	if !ok {
		return
	}

	var req selectClassRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	schedule, err := c.catalog.GetSchedule(ctx.Request.Context(), req.ScheduleID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "schedule not found", nil, err.Error())
		return
	}

	if err := s.SelectScheduleAndClass(ctx.Request.Context(), schedule, req.Class); err != nil {
		c.respondStepError(ctx, err)
		return
	}

	offering := s.Offering()
	response.RespondJSON(ctx, "success", http.StatusOK, "class selected", gin.H{
		"schedule_id": schedule.ID,
		"class":       offering.Class,
		"unit_price":  offering.Price,
	}, nil)
}

type selectSeatsRequest struct {
	SeatIDs []string `json:"seat_ids" binding:"required,min=1"`
}

// SelectSeats handles POST /api/v1/sessions/:id/seats. A successful hold
// also lays out the passenger roster so the client can start filling it.
func (c *Controller) SelectSeats(ctx *gin.Context) {
	s, ok := c.lookup(ctx)
	if !ok {
		return
	}

	var req selectSeatsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	if err := s.SelectSeats(ctx.Request.Context(), req.SeatIDs); err != nil {
		c.respondStepError(ctx, err)
		return
	}
	if err := s.BuildRoster(); err != nil {
		c.respondStepError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "seats held", gin.H{
		"seat_ids":   s.SeatIDs(),
		"passengers": s.Passengers(),
	}, nil)
}

// SetPassenger handles PUT /api/v1/sessions/:id/passengers/:index
func (c *Controller) SetPassenger(ctx *gin.Context) {
	s, ok := c.lookup(ctx)
	if !ok {
		return
	}

	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid passenger index", nil, nil)
		return
	}

	var p Passenger
	if err := ctx.ShouldBindJSON(&p); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	if err := s.SetPassenger(index, p); err != nil {
		c.respondStepError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "passenger updated", nil, nil)
}

// SetContact handles PUT /api/v1/sessions/:id/contact
func (c *Controller) SetContact(ctx *gin.Context) {
	s, ok := c.lookup(ctx)
	if !ok {
		return
	}

	var contact Contact
	if err := ctx.ShouldBindJSON(&contact); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	if err := s.SetContact(contact); err != nil {
		c.respondStepError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "contact updated", nil, nil)
}

// GetState handles GET /api/v1/sessions/:id
func (c *Controller) GetState(ctx *gin.Context) {
	s, ok := c.lookup(ctx)
	if !ok {
		return
	}

	state := gin.H{
		"session_id": s.ID,
		"search":     s.Search(),
		"seat_ids":   s.SeatIDs(),
		"passengers": s.Passengers(),
		"contact":    s.Contact(),
	}
	if schedule := s.Schedule(); schedule != nil {
		state["schedule_id"] = schedule.ID
	}
	if offering := s.Offering(); offering != nil {
		state["class"] = offering.Class
		state["unit_price"] = offering.Price
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "session state", state, nil)
}

// Abandon handles DELETE /api/v1/sessions/:id
func (c *Controller) Abandon(ctx *gin.Context) {
	if err := c.manager.ClearBooking(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "session not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "failed to clear session", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "session cleared", nil, nil)
}

func (c *Controller) lookup(ctx *gin.Context) (*Session, bool) {
	s, err := c.manager.Get(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "session not found", nil, nil)
		return nil, false
	}
	return s, true
}

func (c *Controller) respondStepError(ctx *gin.Context, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, ErrInvalidSearch),
		errors.Is(err, ErrSeatCountMismatch),
		errors.Is(err, ErrPassengerIndexInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, ErrInsufficientCapacity),
		errors.Is(err, inventory.ErrSeatUnavailable):
		status = http.StatusConflict
	case errors.Is(err, ErrStepNotReached):
		status = http.StatusConflict
	}
	response.RespondJSON(ctx, "error", status, err.Error(), nil, nil)
}
