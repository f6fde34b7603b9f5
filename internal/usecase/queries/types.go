package queries

import (
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/commission"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type BookingFilter struct {
	UserID         *uuid.UUID
	ResourceItemID *uuid.UUID
	Statuses       []booking.Status
	// From and To select bookings whose period overlaps [From, To).
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Matches applies the filter predicate to one booking; paging is left to the caller.
func (f BookingFilter) Matches(b *booking.Booking) bool {
	if f.UserID != nil && b.UserID() != *f.UserID {
		return false
	}
	if f.ResourceItemID != nil && b.ResourceItemID() != *f.ResourceItemID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if b.Status() == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && !b.Period().End().After(*f.From) {
		return false
	}
	if f.To != nil && !b.Period().Start().Before(*f.To) {
		return false
	}
	return true
}

func ValidateLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

type AppliedStrategyView struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`
}

type PriceView struct {
	Base            decimal.Decimal      `json:"base"`
	Commission      decimal.Decimal      `json:"commission"`
	Total           decimal.Decimal      `json:"total"`
	Currency        string               `json:"currency"`
	AppliedStrategy *AppliedStrategyView `json:"applied_strategy,omitempty"`
}

type BookingView struct {
	ID                 uuid.UUID      `json:"id"`
	UserID             uuid.UUID      `json:"user_id"`
	ResourceItemID     uuid.UUID      `json:"resource_item_id"`
	StartAt            time.Time      `json:"start_at"`
	EndAt              time.Time      `json:"end_at"`
	Status             string         `json:"status"`
	Price              PriceView      `json:"price"`
	Notes              *string        `json:"notes,omitempty"`
	PaymentDeadline    *time.Time     `json:"payment_deadline,omitempty"`
	ConfirmedAt        *time.Time     `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	ExpiredAt          *time.Time     `json:"expired_at,omitempty"`
	PaymentFailedAt    *time.Time     `json:"payment_failed_at,omitempty"`
	CancellationReason *string        `json:"cancellation_reason,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	Version            int64          `json:"version"`
}

func NewBookingView(b *booking.Booking) *BookingView {
	return &BookingView{
		ID:                 b.ID(),
		UserID:             b.UserID(),
		ResourceItemID:     b.ResourceItemID(),
		StartAt:            b.Period().Start(),
		EndAt:              b.Period().End(),
		Status:             b.Status().String(),
		Price:              NewPriceView(b.Price()),
		Notes:              b.Notes(),
		PaymentDeadline:    b.PaymentDeadline(),
		ConfirmedAt:        b.ConfirmedAt(),
		CancelledAt:        b.CancelledAt(),
		CompletedAt:        b.CompletedAt(),
		ExpiredAt:          b.ExpiredAt(),
		PaymentFailedAt:    b.PaymentFailedAt(),
		CancellationReason: b.CancellationReason(),
		Metadata:           b.Metadata(),
		CreatedAt:          b.CreatedAt(),
		UpdatedAt:          b.UpdatedAt(),
		Version:            b.Version(),
	}
}

func NewPriceView(p booking.Price) PriceView {
	v := PriceView{
		Base:       p.Base(),
		Commission: p.Commission(),
		Total:      p.Total(),
		Currency:   p.Currency(),
	}
	if applied := p.AppliedCommission(); applied != nil {
		v.AppliedStrategy = &AppliedStrategyView{
			ID:    applied.StrategyID,
			Name:  applied.Name,
			Type:  applied.Type,
			Value: applied.Value,
		}
	}
	return v
}

type BookingPage struct {
	Items  []*BookingView `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type AvailabilityView struct {
	ResourceItemID      uuid.UUID   `json:"resource_item_id"`
	StartAt             time.Time   `json:"start_at"`
	EndAt               time.Time   `json:"end_at"`
	IsAvailable         bool        `json:"is_available"`
	ConflictingBookings []uuid.UUID `json:"conflicting_bookings"`
	AvailableSlots      []SlotView  `json:"available_slots"`
}

type SlotView struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type RevenueView struct {
	Currency   string          `json:"currency"`
	Base       decimal.Decimal `json:"base"`
	Commission decimal.Decimal `json:"commission"`
	Total      decimal.Decimal `json:"total"`
}

// BookingStatistics counts every matching booking; revenue only covers CONFIRMED and COMPLETED.
type BookingStatistics struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Revenue  []RevenueView  `json:"revenue"`
}

type StrategyView struct {
	ID                      uuid.UUID       `json:"id"`
	Name                    string          `json:"name"`
	Type                    string          `json:"type"`
	Value                   decimal.Decimal `json:"value"`
	IsActive                bool            `json:"is_active"`
	Priority                int             `json:"priority"`
	ApplicableResourceTypes []string        `json:"applicable_resource_types"`
	MinBookingDurationHours *float64        `json:"min_booking_duration_hours,omitempty"`
	MaxBookingDurationHours *float64        `json:"max_booking_duration_hours,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

func NewStrategyView(s *commission.Strategy) *StrategyView {
	return &StrategyView{
		ID:                      s.ID(),
		Name:                    s.Name(),
		Type:                    s.Type().String(),
		Value:                   s.Value(),
		IsActive:                s.IsActive(),
		Priority:                s.Priority(),
		ApplicableResourceTypes: s.ApplicableResourceTypes(),
		MinBookingDurationHours: s.MinBookingDurationHours(),
		MaxBookingDurationHours: s.MaxBookingDurationHours(),
		CreatedAt:               s.CreatedAt(),
		UpdatedAt:               s.UpdatedAt(),
	}
}

type PriceQuoteView struct {
	Subtotal        decimal.Decimal      `json:"subtotal"`
	Commission      decimal.Decimal      `json:"commission"`
	Total           decimal.Decimal      `json:"total"`
	Currency        string               `json:"currency"`
	DurationHours   float64              `json:"duration_hours"`
	AppliedStrategy *AppliedStrategyView `json:"applied_strategy,omitempty"`
}
