package booking

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var priceTolerance = decimal.New(1, -2)

// AppliedCommission is the strategy snapshot frozen into a price at creation.
type AppliedCommission struct {
	StrategyID uuid.UUID
	Name       string
	Type       string
	Value      decimal.Decimal
}

type Price struct {
	base       decimal.Decimal
	commission decimal.Decimal
	total      decimal.Decimal
	currency   string
	applied    *AppliedCommission
}

func NewPrice(base, commission decimal.Decimal, currency string) (Price, error) {
	return newPrice(base, commission, nil, currency)
}

// NewPriceWithTotal accepts a precomputed total and rejects it when it drifts
// from base+commission by more than one cent.
func NewPriceWithTotal(base, commission, total decimal.Decimal, currency string) (Price, error) {
	return newPrice(base, commission, &total, currency)
}

func newPrice(base, commission decimal.Decimal, total *decimal.Decimal, currency string) (Price, error) {
	if base.IsNegative() || commission.IsNegative() {
		return Price{}, fmt.Errorf("%w: amounts must not be negative", ErrInvalidPrice)
	}
	code, err := normalizeCurrency(currency)
	if err != nil {
		return Price{}, err
	}

	sum := base.Add(commission)
	if total != nil {
		if total.IsNegative() {
			return Price{}, fmt.Errorf("%w: total must not be negative", ErrInvalidPrice)
		}
		if total.Sub(sum).Abs().GreaterThan(priceTolerance) {
			return Price{}, fmt.Errorf("%w: total %s, base %s, commission %s",
				ErrPriceMismatch, total.String(), base.String(), commission.String())
		}
		sum = *total
	}

	return Price{
		base:       base,
		commission: commission,
		total:      sum,
		currency:   code,
	}, nil
}

func normalizeCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
		}
	}
	return code, nil
}

// WithAppliedCommission returns a copy carrying the strategy snapshot.
func (p Price) WithAppliedCommission(applied AppliedCommission) Price {
	cp := applied
	p.applied = &cp
	return p
}

func (p Price) Base() decimal.Decimal       { return p.base }
func (p Price) Commission() decimal.Decimal { return p.commission }
func (p Price) Total() decimal.Decimal      { return p.total }
func (p Price) Currency() string            { return p.currency }

func (p Price) AppliedCommission() *AppliedCommission {
	if p.applied == nil {
		return nil
	}
	cp := *p.applied
	return &cp
}

func (p Price) Equals(other Price) bool {
	return p.currency == other.currency &&
		p.base.Equal(other.base) &&
		p.commission.Equal(other.commission) &&
		p.total.Equal(other.total)
}

func (p Price) String() string {
	return fmt.Sprintf("%s %s (base %s + commission %s)",
		p.total.StringFixed(2), p.currency, p.base.StringFixed(2), p.commission.StringFixed(2))
}
