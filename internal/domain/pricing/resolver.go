// Package pricing turns a base hourly price and the active commission strategies
// into the frozen price of a booking.
package pricing

import (
	"cmp"
	"slices"
	"strings"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/commission"

	"github.com/shopspring/decimal"
)

const amountPlaces = 2

type Input struct {
	BasePrice     decimal.Decimal
	Currency      string
	ResourceType  string
	DurationHours float64
}

type Result struct {
	Subtotal   decimal.Decimal
	Commission decimal.Decimal
	Total      decimal.Decimal
	Currency   string
	Strategy   *commission.Strategy
}

func (r Result) ToPrice() (booking.Price, error) {
	price, err := booking.NewPriceWithTotal(r.Subtotal, r.Commission, r.Total, r.Currency)
	if err != nil {
		return booking.Price{}, err
	}
	if r.Strategy != nil {
		price = price.WithAppliedCommission(booking.AppliedCommission{
			StrategyID: r.Strategy.ID(),
			Name:       r.Strategy.Name(),
			Type:       r.Strategy.Type().String(),
			Value:      r.Strategy.Value(),
		})
	}
	return price, nil
}

type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve prices the booking against one consistent snapshot of strategies.
func (r *Resolver) Resolve(in Input, strategies []*commission.Strategy) (Result, error) {
	if in.BasePrice.IsNegative() || in.DurationHours <= 0 {
		return Result{}, booking.ErrInvalidPrice
	}

	subtotal := in.BasePrice.Mul(decimal.NewFromFloat(in.DurationHours)).Round(amountPlaces)
	result := Result{
		Subtotal:   subtotal,
		Commission: decimal.Zero,
		Total:      subtotal,
		Currency:   strings.ToUpper(strings.TrimSpace(in.Currency)),
	}

	selected := SelectStrategy(strategies, in.ResourceType, in.DurationHours)
	if selected == nil {
		return result, nil
	}

	result.Commission = selected.Calculate(subtotal).Round(amountPlaces)
	result.Total = subtotal.Add(result.Commission)
	result.Strategy = selected
	return result, nil
}

// SelectStrategy picks the applicable strategy with the highest priority. Equal priorities
// fall back to the earliest createdAt, then to the lexicographically lowest id.
func SelectStrategy(strategies []*commission.Strategy, resourceType string, durationHours float64) *commission.Strategy {
	applicable := make([]*commission.Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil && s.AppliesTo(resourceType, durationHours) {
			applicable = append(applicable, s)
		}
	}
	if len(applicable) == 0 {
		return nil
	}

	slices.SortFunc(applicable, compareStrategies)
	return applicable[0]
}

func compareStrategies(a, b *commission.Strategy) int {
	if c := cmp.Compare(b.Priority(), a.Priority()); c != 0 {
		return c
	}
	if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
		return c
	}
	return strings.Compare(a.ID().String(), b.ID().String())
}
