package response

import (
	"booking-engine/internal/usecase/queries"

	"github.com/shopspring/decimal"
)

// amounts leave the API as fixed two-decimal strings
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type AppliedStrategyResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type PriceResponse struct {
	Base            string                   `json:"base"`
	Commission      string                   `json:"commission"`
	Total           string                   `json:"total"`
	Currency        string                   `json:"currency"`
	AppliedStrategy *AppliedStrategyResponse `json:"applied_strategy,omitempty"`
}

type BookingResponse struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"user_id"`
	ResourceItemID     string         `json:"resource_item_id"`
	StartAt            string         `json:"start_at"`
	EndAt              string         `json:"end_at"`
	Status             string         `json:"status"`
	Price              PriceResponse  `json:"price"`
	Notes              *string        `json:"notes,omitempty"`
	PaymentDeadline    *string        `json:"payment_deadline,omitempty"`
	ConfirmedAt        *string        `json:"confirmed_at,omitempty"`
	CancelledAt        *string        `json:"cancelled_at,omitempty"`
	CompletedAt        *string        `json:"completed_at,omitempty"`
	ExpiredAt          *string        `json:"expired_at,omitempty"`
	PaymentFailedAt    *string        `json:"payment_failed_at,omitempty"`
	CancellationReason *string        `json:"cancellation_reason,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	CreatedAt          string         `json:"created_at"`
	UpdatedAt          string         `json:"updated_at"`
	Version            int64          `json:"version"`
}

func FromBookingView(v *queries.BookingView) *BookingResponse {
	return &BookingResponse{
		ID:                 v.ID.String(),
		UserID:             v.UserID.String(),
		ResourceItemID:     v.ResourceItemID.String(),
		StartAt:            formatTime(v.StartAt),
		EndAt:              formatTime(v.EndAt),
		Status:             v.Status,
		Price:              FromPriceView(v.Price),
		Notes:              v.Notes,
		PaymentDeadline:    formatTimePtr(v.PaymentDeadline),
		ConfirmedAt:        formatTimePtr(v.ConfirmedAt),
		CancelledAt:        formatTimePtr(v.CancelledAt),
		CompletedAt:        formatTimePtr(v.CompletedAt),
		ExpiredAt:          formatTimePtr(v.ExpiredAt),
		PaymentFailedAt:    formatTimePtr(v.PaymentFailedAt),
		CancellationReason: v.CancellationReason,
		Metadata:           v.Metadata,
		CreatedAt:          formatTime(v.CreatedAt),
		UpdatedAt:          formatTime(v.UpdatedAt),
		Version:            v.Version,
	}
}

func FromPriceView(v queries.PriceView) PriceResponse {
	return PriceResponse{
		Base:            money(v.Base),
		Commission:      money(v.Commission),
		Total:           money(v.Total),
		Currency:        v.Currency,
		AppliedStrategy: fromAppliedStrategy(v.AppliedStrategy),
	}
}

func fromAppliedStrategy(v *queries.AppliedStrategyView) *AppliedStrategyResponse {
	if v == nil {
		return nil
	}
	return &AppliedStrategyResponse{
		ID:    v.ID.String(),
		Name:  v.Name,
		Type:  v.Type,
		Value: v.Value.String(),
	}
}

type BookingListResponse struct {
	Items  []*BookingResponse `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

func FromBookingPage(p *queries.BookingPage) *BookingListResponse {
	items := make([]*BookingResponse, len(p.Items))
	for i, v := range p.Items {
		items[i] = FromBookingView(v)
	}
	return &BookingListResponse{
		Items:  items,
		Total:  p.Total,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
}

type SlotResponse struct {
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

type AvailabilityResponse struct {
	ResourceItemID      string         `json:"resource_item_id"`
	StartAt             string         `json:"start_at"`
	EndAt               string         `json:"end_at"`
	IsAvailable         bool           `json:"is_available"`
	ConflictingBookings []string       `json:"conflicting_bookings"`
	AvailableSlots      []SlotResponse `json:"available_slots"`
}

func FromAvailabilityView(v *queries.AvailabilityView) *AvailabilityResponse {
	conflicts := make([]string, len(v.ConflictingBookings))
	for i, id := range v.ConflictingBookings {
		conflicts[i] = id.String()
	}
	slots := make([]SlotResponse, len(v.AvailableSlots))
	for i, s := range v.AvailableSlots {
		slots[i] = SlotResponse{StartAt: formatTime(s.StartAt), EndAt: formatTime(s.EndAt)}
	}
	return &AvailabilityResponse{
		ResourceItemID:      v.ResourceItemID.String(),
		StartAt:             formatTime(v.StartAt),
		EndAt:               formatTime(v.EndAt),
		IsAvailable:         v.IsAvailable,
		ConflictingBookings: conflicts,
		AvailableSlots:      slots,
	}
}

type RevenueResponse struct {
	Currency   string `json:"currency"`
	Base       string `json:"base"`
	Commission string `json:"commission"`
	Total      string `json:"total"`
}

type BookingStatisticsResponse struct {
	Total    int               `json:"total"`
	ByStatus map[string]int    `json:"by_status"`
	Revenue  []RevenueResponse `json:"revenue"`
}

func FromBookingStatistics(s *queries.BookingStatistics) *BookingStatisticsResponse {
	revenue := make([]RevenueResponse, len(s.Revenue))
	for i, r := range s.Revenue {
		revenue[i] = RevenueResponse{
			Currency:   r.Currency,
			Base:       money(r.Base),
			Commission: money(r.Commission),
			Total:      money(r.Total),
		}
	}
	return &BookingStatisticsResponse{
		Total:    s.Total,
		ByStatus: s.ByStatus,
		Revenue:  revenue,
	}
}
