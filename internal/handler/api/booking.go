package api

import (
	"context"
	"net/http"
	"time"

	"booking-engine/internal/domain/booking"
	reqdto "booking-engine/internal/handler/dto/request"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	cmds       commands.BookingCommands
	q          queries.BookingQueries
	retryAfter time.Duration
}

// NewBookingHandler derives Retry-After from the lock's worst-case wait.
func NewBookingHandler(cmds commands.BookingCommands, q queries.BookingQueries, lockCfg config.LockConfig) *BookingHandler {
	return &BookingHandler{
		cmds:       cmds,
		q:          q,
		retryAfter: time.Duration(lockCfg.MaxRetries+1) * lockCfg.RetryDelay,
	}
}

// @Summary Create booking
// @Description Lock the interval, check availability, price with the active commission strategies and store a PENDING booking
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Booking owner when user_id is omitted from the body"
// @Param request body reqdto.CreateBookingRequest true "Create booking request"
// @Success 201 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	var headerUserID *uuid.UUID
	if id, ok := middleware.GetUserID(c); ok {
		headerUserID = &id
	}
	params, err := req.ToParams(headerUserID)
	if err != nil {
		abortWithUseCaseError(c, err, h.retryAfter, "Create booking failed")
		return
	}

	b, err := h.cmds.Create(c.Request.Context(), params)
	if err != nil {
		abortWithUseCaseError(c, err, h.retryAfter, "Create booking failed")
		return
	}

	c.Header("Location", "/api/bookings/"+b.ID().String())
	c.JSON(http.StatusCreated, resdto.FromBookingView(queries.NewBookingView(b)))
}

// @Summary Get booking
// @Description Get a booking by ID
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithUseCaseError(c, err, h.retryAfter, "Failed to load booking")
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary List bookings
// @Description List bookings filtered by user, resource item, status and overlapping time window
// @Tags bookings
// @Produce json
// @Param user_id query string false "User ID"
// @Param resource_item_id query string false "Resource item ID"
// @Param status query []string false "Status filter (repeat or comma separated)"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} resdto.BookingListResponse
// @Failure 400 {object} httperr.Response
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	page, err := h.q.List(c.Request.Context(), filter)
	if err != nil {
		abortWithUseCaseError(c, err, h.retryAfter, "Failed to list bookings")
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingPage(page))
}

// @Summary Booking statistics
// @Description Count bookings per status and sum CONFIRMED and COMPLETED revenue per currency
// @Tags bookings
// @Produce json
// @Param user_id query string false "User ID"
// @Param resource_item_id query string false "Resource item ID"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Success 200 {object} resdto.BookingStatisticsResponse
// @Failure 400 {object} httperr.Response
// @Router /bookings/statistics [get]
func (h *BookingHandler) Statistics(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	stats, err := h.q.Statistics(c.Request.Context(), filter)
	if err != nil {
		abortWithUseCaseError(c, err, h.retryAfter, "Failed to compute statistics")
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingStatistics(stats))
}

// @Summary Check availability
// @Description Report whether a resource item is free for the interval, with conflicting bookings and free slots
// @Tags availability
// @Produce json
// @Param id path string true "Resource item ID"
// @Param start_at query string true "Interval start (RFC3339)"
// @Param end_at query string true "Interval end (RFC3339)"
// @Param exclude_booking_id query string false "Booking to ignore, e.g. when rescheduling"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Router /resource-items/{id}/availability [get]
func (h *BookingHandler) Availability(c *gin.Context) {
	resourceItemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid resource item id", nil)
		return
	}
	var query reqdto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	start, end, excludeID, err := query.Parse()
	if err != nil {
		abortWithUseCaseError(c, err, h.retryAfter, "Availability check failed")
		return
	}

	view, err := h.q.CheckAvailability(c.Request.Context(), resourceItemID, start, end, excludeID)
	if err != nil {
		abortWithUseCaseError(c, err, h.retryAfter, "Availability check failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromAvailabilityView(view))
}

// @Summary Confirm booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, "Confirm booking failed", h.cmds.Confirm)
}

// @Summary Cancel booking
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body reqdto.CancelBookingRequest false "Cancellation reason"
// @Success 200 {object} resdto.BookingResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	var req reqdto.CancelBookingRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.transition(c, "Cancel booking failed", func(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
		return h.cmds.Cancel(ctx, id, req.Reason)
	})
}

// @Summary Complete booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/complete [post]
func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, "Complete booking failed", h.cmds.Complete)
}

// @Summary Expire booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/expire [post]
func (h *BookingHandler) Expire(c *gin.Context) {
	h.transition(c, "Expire booking failed", h.cmds.Expire)
}

// @Summary Mark payment pending
// @Tags payments
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/payment-pending [post]
func (h *BookingHandler) MarkPaymentPending(c *gin.Context) {
	h.transition(c, "Mark payment pending failed", h.cmds.MarkPaymentPending)
}

// @Summary Mark payment failed
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body reqdto.PaymentFailedRequest false "Failure reason"
// @Success 200 {object} resdto.BookingResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/payment-failed [post]
func (h *BookingHandler) MarkPaymentFailed(c *gin.Context) {
	var req reqdto.PaymentFailedRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.transition(c, "Payment failure update failed", func(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
		return h.cmds.MarkPaymentFailed(ctx, id, req.Reason)
	})
}

// @Summary Process payment outcome
// @Description Apply a payment provider result: succeeded confirms, failed marks PAYMENT_FAILED, pending marks PAYMENT_PENDING
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body reqdto.ProcessPaymentRequest true "Payment outcome"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/payment [post]
func (h *BookingHandler) ProcessPayment(c *gin.Context) {
	var req reqdto.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	h.transition(c, "Process payment failed", func(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
		return h.cmds.ProcessPayment(ctx, req.ToOutcome(id))
	})
}

// @Summary Expire overdue bookings
// @Description Run one expiry sweep over bookings past their payment deadline
// @Tags bookings
// @Produce json
// @Success 200 {object} commands.SweepResult
// @Failure 500 {object} httperr.Response
// @Router /bookings/expire-overdue [post]
func (h *BookingHandler) ExpireOverdue(c *gin.Context) {
	result, err := h.cmds.ExpireOverdue(c.Request.Context())
	if err != nil {
		abortWithUseCaseError(c, err, h.retryAfter, "Expiry sweep failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) transition(c *gin.Context, failMsg string, apply func(ctx context.Context, id uuid.UUID) (*booking.Booking, error)) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	b, err := apply(c.Request.Context(), id)
	if err != nil {
		abortWithUseCaseError(c, err, h.retryAfter, failMsg)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingView(queries.NewBookingView(b)))
}

func (h *BookingHandler) bindFilter(c *gin.Context) (queries.BookingFilter, bool) {
	var query reqdto.ListBookingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return queries.BookingFilter{}, false
	}
	filter, err := query.ToFilter()
	if err != nil {
		abortWithUseCaseError(c, err, h.retryAfter, "Invalid request")
		return queries.BookingFilter{}, false
	}
	return filter, true
}

func bookingIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON accepts an empty body; reasons are optional.
func bindOptionalJSON(c *gin.Context, target any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(target); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return false
	}
	return true
}
