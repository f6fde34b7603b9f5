package response

import (
	"time"

	"booking-engine/internal/usecase/queries"
)

type StrategyResponse struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	Type                    string   `json:"type"`
	Value                   string   `json:"value"`
	IsActive                bool     `json:"is_active"`
	Priority                int      `json:"priority"`
	ApplicableResourceTypes []string `json:"applicable_resource_types"`
	MinBookingDurationHours *float64 `json:"min_booking_duration_hours,omitempty"`
	MaxBookingDurationHours *float64 `json:"max_booking_duration_hours,omitempty"`
	CreatedAt               string   `json:"created_at"`
	UpdatedAt               string   `json:"updated_at"`
}

func FromStrategyView(v *queries.StrategyView) *StrategyResponse {
	types := v.ApplicableResourceTypes
	if types == nil {
		types = []string{}
	}
	return &StrategyResponse{
		ID:                      v.ID.String(),
		Name:                    v.Name,
		Type:                    v.Type,
		Value:                   v.Value.String(),
		IsActive:                v.IsActive,
		Priority:                v.Priority,
		ApplicableResourceTypes: types,
		MinBookingDurationHours: v.MinBookingDurationHours,
		MaxBookingDurationHours: v.MaxBookingDurationHours,
		CreatedAt:               formatTime(v.CreatedAt),
		UpdatedAt:               formatTime(v.UpdatedAt),
	}
}

func FromStrategyViews(vs []*queries.StrategyView) []*StrategyResponse {
	res := make([]*StrategyResponse, len(vs))
	for i, v := range vs {
		res[i] = FromStrategyView(v)
	}
	return res
}

type PriceQuoteResponse struct {
	Subtotal        string                   `json:"subtotal"`
	Commission      string                   `json:"commission"`
	Total           string                   `json:"total"`
	Currency        string                   `json:"currency"`
	DurationHours   float64                  `json:"duration_hours"`
	AppliedStrategy *AppliedStrategyResponse `json:"applied_strategy,omitempty"`
}

func FromPriceQuoteView(v *queries.PriceQuoteView) *PriceQuoteResponse {
	return &PriceQuoteResponse{
		Subtotal:        money(v.Subtotal),
		Commission:      money(v.Commission),
		Total:           money(v.Total),
		Currency:        v.Currency,
		DurationHours:   v.DurationHours,
		AppliedStrategy: fromAppliedStrategy(v.AppliedStrategy),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
