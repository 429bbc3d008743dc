package bookings

import (
	"errors"
	"net/http"

	"shipline/internal/inventory"
	"shipline/internal/sessions"
	"shipline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

type commitRequest struct {
	SessionID string `json:"session_id" binding:"required,uuid"`
}

// Commit handles POST /api/v1/bookings/commit
func (c *Controller) Commit(ctx *gin.Context) {
	var req commitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	booking, err := c.service.Commit(ctx.Request.Context(), req.SessionID)
	if err != nil {
		c.respondError(ctx, err, "booking commit failed")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "booking created", booking, nil)
}

type paymentRequest struct {
	Method      string `json:"method" binding:"required"`
	ExternalRef string `json:"external_ref"`
}

// ConfirmPayment handles POST /api/v1/bookings/:code/payment
func (c *Controller) ConfirmPayment(ctx *gin.Context) {
	var req paymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	booking, err := c.service.ConfirmPayment(ctx.Request.Context(), ctx.Param("code"), req.Method, req.ExternalRef)
	if err != nil {
		c.respondError(ctx, err, "payment confirmation failed")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "payment confirmed", booking, nil)
}

// Cancel handles POST /api/v1/bookings/:code/cancel
func (c *Controller) Cancel(ctx *gin.Context) {
	booking, err := c.service.Cancel(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		c.respondError(ctx, err, "cancellation failed")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "booking cancelled", booking, nil)
}

type advanceRequest struct {
	Status Status `json:"status" binding:"required"`
}

// Advance handles POST /api/v1/bookings/:code/advance
func (c *Controller) Advance(ctx *gin.Context) {
	var req advanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	booking, err := c.service.Advance(ctx.Request.Context(), ctx.Param("code"), req.Status)
	if err != nil {
		c.respondError(ctx, err, "status advance failed")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "booking updated", booking, nil)
}

// GetByCode handles GET /api/v1/bookings/:code. With ?email= the lookup is
// scoped to that contact, for customer self-service.
func (c *Controller) GetByCode(ctx *gin.Context) {
	var (
		booking *Booking
		err     error
	)
	if email := ctx.Query("email"); email != "" {
		booking, err = c.service.GetByContactEmail(ctx.Request.Context(), email, ctx.Param("code"))
	} else {
		booking, err = c.service.GetByCode(ctx.Request.Context(), ctx.Param("code"))
	}
	if err != nil {
		c.respondError(ctx, err, "booking lookup failed")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "booking retrieved", booking, nil)
}

func (c *Controller) respondError(ctx *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, sessions.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sessions.ErrIncompleteRoster), errors.Is(err, sessions.ErrStepNotReached):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrAlreadyFinalized), errors.Is(err, ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, inventory.ErrSeatUnavailable), errors.Is(err, inventory.ErrExpiredHold):
		status = http.StatusConflict
	case errors.Is(err, ErrCodeGenerationExhausted):
		status = http.StatusServiceUnavailable
	}
	response.RespondJSON(ctx, "error", status, message, nil, err.Error())
}
