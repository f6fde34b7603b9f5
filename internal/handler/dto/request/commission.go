package request

import (
	"time"

	"booking-engine/internal/domain/commission"
	"booking-engine/internal/usecase/queries"
)

type StrategyRequest struct {
	Name                    string   `json:"name" binding:"required,max=100"`
	Type                    string   `json:"type" binding:"required,oneof=PERCENTAGE FIXED_AMOUNT"`
	Value                   string   `json:"value" binding:"required"`
	Priority                int      `json:"priority"`
	ApplicableResourceTypes []string `json:"applicable_resource_types"`
	MinBookingDurationHours *float64 `json:"min_booking_duration_hours,omitempty" binding:"omitempty,gte=0"`
	MaxBookingDurationHours *float64 `json:"max_booking_duration_hours,omitempty" binding:"omitempty,gt=0"`
}

func (r StrategyRequest) ToParams() (commission.Params, error) {
	strategyType, err := commission.ParseType(r.Type)
	if err != nil {
		return commission.Params{}, err
	}
	value, err := ParseAmount(r.Value)
	if err != nil {
		return commission.Params{}, err
	}
	return commission.Params{
		Name:                    r.Name,
		Type:                    strategyType,
		Value:                   value,
		Priority:                r.Priority,
		ApplicableResourceTypes: r.ApplicableResourceTypes,
		MinBookingDurationHours: r.MinBookingDurationHours,
		MaxBookingDurationHours: r.MaxBookingDurationHours,
	}, nil
}

type QuoteRequest struct {
	BasePrice     string     `json:"base_price" binding:"required"`
	Currency      string     `json:"currency,omitempty" binding:"omitempty,len=3,alpha"`
	ResourceType  string     `json:"resource_type,omitempty"`
	DurationHours float64    `json:"duration_hours,omitempty" binding:"omitempty,gt=0"`
	StartAt       *time.Time `json:"start_at,omitempty"`
	EndAt         *time.Time `json:"end_at,omitempty"`
}

func (r QuoteRequest) ToInput() (queries.QuoteInput, error) {
	basePrice, err := ParseAmount(r.BasePrice)
	if err != nil {
		return queries.QuoteInput{}, err
	}
	return queries.QuoteInput{
		BasePrice:     basePrice,
		Currency:      r.Currency,
		ResourceType:  r.ResourceType,
		DurationHours: r.DurationHours,
		StartAt:       r.StartAt,
		EndAt:         r.EndAt,
	}, nil
}
