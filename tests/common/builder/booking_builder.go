//go:build unit || e2e

package builder

import (
	"time"

	"booking-engine/internal/domain/booking"
	reqdto "booking-engine/internal/handler/dto/request"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BaseTime is the fixed "now" builders and mock clocks agree on.
var BaseTime = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

type BookingBuilder struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ResourceItemID uuid.UUID
	StartAt        time.Time
	EndAt          time.Time
	Now            time.Time
	BasePrice      decimal.Decimal
	Commission     decimal.Decimal
	Currency       string
	ResourceType   string
	Notes          *string
	Metadata       map[string]any
	PaymentWindow  time.Duration
	Status         booking.Status
	Version        int64
}

func NewBookingBuilder() *BookingBuilder {
	return &BookingBuilder{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ResourceItemID: uuid.New(),
		StartAt:        BaseTime.Add(24 * time.Hour),
		EndAt:          BaseTime.Add(26 * time.Hour),
		Now:            BaseTime,
		BasePrice:      decimal.NewFromInt(100),
		Commission:     decimal.Zero,
		Currency:       "USD",
		ResourceType:   "room",
		PaymentWindow:  10 * time.Minute,
		Status:         booking.StatusPending,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) WithPeriod(start, end time.Time) *BookingBuilder {
	b.StartAt = start
	b.EndAt = end
	return b
}

// WithHours places the booking offset hours after BaseTime and lasting length hours.
func (b *BookingBuilder) WithHours(offset, length int) *BookingBuilder {
	b.StartAt = BaseTime.Add(time.Duration(offset) * time.Hour)
	b.EndAt = b.StartAt.Add(time.Duration(length) * time.Hour)
	return b
}

func (b *BookingBuilder) WithResourceItem(id uuid.UUID) *BookingBuilder {
	b.ResourceItemID = id
	return b
}

func (b *BookingBuilder) WithStatus(status booking.Status) *BookingBuilder {
	b.Status = status
	return b
}

func (b *BookingBuilder) WithVersion(version int64) *BookingBuilder {
	b.Version = version
	return b
}

func (b *BookingBuilder) WithNow(now time.Time) *BookingBuilder {
	b.Now = now
	return b
}

func (b *BookingBuilder) BuildPeriod() (booking.Period, error) {
	return booking.NewPeriod(b.StartAt, b.EndAt, b.Now)
}

func (b *BookingBuilder) BuildPrice() booking.Price {
	price, err := booking.NewPrice(b.BasePrice.Mul(decimal.NewFromFloat(b.EndAt.Sub(b.StartAt).Hours())), b.Commission, b.Currency)
	if err != nil {
		panic(err)
	}
	return price
}

// BuildDomain goes through booking.New, so the result is PENDING and unpersisted.
func (b *BookingBuilder) BuildDomain() (*booking.Booking, error) {
	period, err := b.BuildPeriod()
	if err != nil {
		return nil, err
	}
	created, _, err := booking.New(booking.NewParams{
		ID:             b.ID,
		UserID:         b.UserID,
		ResourceItemID: b.ResourceItemID,
		Period:         period,
		Price:          b.BuildPrice(),
		Notes:          b.Notes,
		Metadata:       b.Metadata,
		PaymentWindow:  b.PaymentWindow,
	}, b.Now)
	return created, err
}

// BuildReconstructed skips validation and honours Status and Version, like a row loaded from storage.
func (b *BookingBuilder) BuildReconstructed() *booking.Booking {
	deadline := b.Now.Add(b.PaymentWindow)
	return booking.Reconstruct(booking.ReconstructParams{
		ID:              b.ID,
		UserID:          b.UserID,
		ResourceItemID:  b.ResourceItemID,
		Period:          booking.ReconstructPeriod(b.StartAt, b.EndAt),
		Price:           b.BuildPrice(),
		Status:          b.Status,
		Notes:           b.Notes,
		PaymentDeadline: &deadline,
		Metadata:        b.Metadata,
		CreatedAt:       b.Now,
		UpdatedAt:       b.Now,
		Version:         b.Version,
	})
}

func (b *BookingBuilder) BuildCreateParams() commands.CreateBookingParams {
	return commands.CreateBookingParams{
		UserID:         b.UserID,
		ResourceItemID: b.ResourceItemID,
		StartAt:        b.StartAt,
		EndAt:          b.EndAt,
		BasePrice:      b.BasePrice,
		Currency:       b.Currency,
		ResourceType:   b.ResourceType,
		Notes:          b.Notes,
		Metadata:       b.Metadata,
	}
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	userID := b.UserID
	return reqdto.CreateBookingRequest{
		UserID:         &userID,
		ResourceItemID: b.ResourceItemID,
		StartAt:        b.StartAt,
		EndAt:          b.EndAt,
		BasePrice:      b.BasePrice.String(),
		Currency:       b.Currency,
		ResourceType:   b.ResourceType,
		Notes:          b.Notes,
	}
}

func (b *BookingBuilder) BuildView() *queries.BookingView {
	return queries.NewBookingView(b.BuildReconstructed())
}
