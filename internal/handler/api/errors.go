package api

import (
	"net/http"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/commission"
	"booking-engine/internal/handler/dto/request"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type conflictDetail struct {
	ConflictingBookings []string `json:"conflicting_bookings"`
}

type transitionDetail struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// abortWithUseCaseError maps command and query errors onto HTTP statuses.
// Anything unrecognised is a 500 with the fallback message.
func abortWithUseCaseError(c *gin.Context, err error, retryAfter time.Duration, fallback string) {
	var overlap *commands.PeriodOverlapError
	var illegal *booking.IllegalTransitionError

	switch {
	case errs.As(err, &overlap):
		ids := make([]string, len(overlap.ConflictingIDs))
		for i, id := range overlap.ConflictingIDs {
			ids[i] = id.String()
		}
		httperr.AbortWithError(c, http.StatusConflict, err, "Period overlaps an existing booking", conflictDetail{ConflictingBookings: ids})
	case errs.Is(err, commands.ErrPeriodOverlap):
		httperr.AbortWithError(c, http.StatusConflict, err, "Period overlaps an existing booking", conflictDetail{ConflictingBookings: []string{}})
	case errs.Is(err, commands.ErrLockUnavailable):
		httperr.AbortWithRetryAfter(c, http.StatusServiceUnavailable, retryAfter, err, "Resource is busy, retry later", nil)
	case errs.As(err, &illegal):
		httperr.AbortWithError(c, http.StatusConflict, err, "Illegal status transition",
			transitionDetail{From: illegal.From.String(), To: illegal.To.String()})
	case errs.Is(err, commands.ErrIllegalTransition):
		httperr.AbortWithError(c, http.StatusConflict, err, "Illegal status transition", nil)
	case errs.Is(err, commands.ErrConcurrentModification):
		httperr.AbortWithError(c, http.StatusConflict, err, "Booking was modified concurrently", nil)
	case errs.Is(err, commands.ErrInvalidPeriod), errs.Is(err, queries.ErrInvalidPeriod):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking period", nil)
	case errs.Is(err, commands.ErrInvalidBooking),
		errs.Is(err, commands.ErrInvalidPrice),
		errs.Is(err, commands.ErrInvalidPaymentStatus),
		errs.Is(err, commands.ErrInvalidStrategy),
		errs.Is(err, queries.ErrInvalidQuote),
		errs.Is(err, request.ErrInvalidAmount),
		errs.Is(err, request.ErrInvalidQuery),
		errs.Is(err, request.ErrMissingUser),
		errs.Is(err, commission.ErrInvalidType):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", err.Error())
	case errs.Is(err, commands.ErrBookingNotFound), errs.Is(err, queries.ErrBookingNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
	case errs.Is(err, commands.ErrStrategyNotFound), errs.Is(err, queries.ErrStrategyNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Commission strategy not found", nil)
	case errs.Is(err, commands.ErrStrategyNameConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, "Commission strategy name already exists", nil)
	case errs.Is(err, commission.ErrAlreadyActive), errs.Is(err, commission.ErrAlreadyInactive):
		httperr.AbortWithError(c, http.StatusConflict, err, err.Error(), nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, fallback, nil)
	}
}
