package request

import (
	"strings"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errs.New("amount must be a decimal number")
	ErrInvalidQuery  = errs.New("invalid query parameter")
	ErrMissingUser   = errs.New("user_id or X-User-ID is required")
)

type CreateBookingRequest struct {
	UserID         *uuid.UUID     `json:"user_id,omitempty"`
	ResourceItemID uuid.UUID      `json:"resource_item_id" binding:"required"`
	StartAt        time.Time      `json:"start_at" binding:"required"`
	EndAt          time.Time      `json:"end_at" binding:"required"`
	BasePrice      string         `json:"base_price" binding:"required"`
	Currency       string         `json:"currency,omitempty" binding:"omitempty,len=3,alpha"`
	ResourceType   string         `json:"resource_type,omitempty" binding:"omitempty,max=50"`
	DurationHours  *float64       `json:"duration_hours,omitempty" binding:"omitempty,gt=0"`
	Notes          *string        `json:"notes,omitempty" binding:"omitempty,max=1000"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// ToParams resolves the booking owner: the body wins, the X-User-ID header is the fallback.
func (r CreateBookingRequest) ToParams(headerUserID *uuid.UUID) (commands.CreateBookingParams, error) {
	userID := r.UserID
	if userID == nil {
		userID = headerUserID
	}
	if userID == nil || *userID == uuid.Nil {
		return commands.CreateBookingParams{}, ErrMissingUser
	}

	basePrice, err := ParseAmount(r.BasePrice)
	if err != nil {
		return commands.CreateBookingParams{}, err
	}

	params := commands.CreateBookingParams{
		UserID:         *userID,
		ResourceItemID: r.ResourceItemID,
		StartAt:        r.StartAt,
		EndAt:          r.EndAt,
		BasePrice:      basePrice,
		Currency:       r.Currency,
		ResourceType:   strings.TrimSpace(r.ResourceType),
		Metadata:       r.Metadata,
	}
	if r.DurationHours != nil {
		params.DurationHours = *r.DurationHours
	}
	if r.Notes != nil {
		trimmed := strings.TrimSpace(*r.Notes)
		if trimmed != "" {
			params.Notes = &trimmed
		}
	}
	return params, nil
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type PaymentFailedRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type ProcessPaymentRequest struct {
	Status string `json:"status" binding:"required,oneof=succeeded failed pending"`
	Reason string `json:"reason" binding:"max=500"`
}

func (r ProcessPaymentRequest) ToOutcome(bookingID uuid.UUID) commands.PaymentOutcome {
	return commands.PaymentOutcome{
		BookingID: bookingID,
		Status:    commands.PaymentStatus(r.Status),
		Reason:    strings.TrimSpace(r.Reason),
	}
}

// ListBookingsQuery keeps ids and times as strings; they are parsed in ToFilter.
type ListBookingsQuery struct {
	UserID         string   `form:"user_id"`
	ResourceItemID string   `form:"resource_item_id"`
	Status         []string `form:"status"`
	From           string   `form:"from"`
	To             string   `form:"to"`
	Limit          int      `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset         int      `form:"offset" binding:"omitempty,min=0"`
}

func (q ListBookingsQuery) ToFilter() (queries.BookingFilter, error) {
	var (
		filter queries.BookingFilter
		err    error
	)
	if filter.UserID, err = parseOptionalUUID("user_id", q.UserID); err != nil {
		return queries.BookingFilter{}, err
	}
	if filter.ResourceItemID, err = parseOptionalUUID("resource_item_id", q.ResourceItemID); err != nil {
		return queries.BookingFilter{}, err
	}
	if filter.From, err = parseOptionalTime("from", q.From); err != nil {
		return queries.BookingFilter{}, err
	}
	if filter.To, err = parseOptionalTime("to", q.To); err != nil {
		return queries.BookingFilter{}, err
	}

	// accepts both ?status=A&status=B and ?status=A,B
	for _, raw := range q.Status {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			s, err := booking.ParseStatus(part)
			if err != nil {
				return queries.BookingFilter{}, errs.Mark(err, ErrInvalidQuery)
			}
			filter.Statuses = append(filter.Statuses, s)
		}
	}

	filter.Limit = queries.ValidateLimit(q.Limit)
	filter.Offset = q.Offset
	return filter, nil
}

type AvailabilityQuery struct {
	StartAt          string `form:"start_at" binding:"required"`
	EndAt            string `form:"end_at" binding:"required"`
	ExcludeBookingID string `form:"exclude_booking_id"`
}

func (q AvailabilityQuery) Parse() (start, end time.Time, excludeID *uuid.UUID, err error) {
	if start, err = parseTime("start_at", q.StartAt); err != nil {
		return
	}
	if end, err = parseTime("end_at", q.EndAt); err != nil {
		return
	}
	excludeID, err = parseOptionalUUID("exclude_booking_id", q.ExcludeBookingID)
	return
}

func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, errs.Wrapf(ErrInvalidAmount, "%q", raw)
	}
	return d, nil
}

func parseOptionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errs.Wrapf(ErrInvalidQuery, "%s: %s", field, err.Error())
	}
	return &id, nil
}

func parseOptionalTime(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(field, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTime(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errs.Wrapf(ErrInvalidQuery, "%s must be RFC3339", field)
	}
	return t, nil
}
