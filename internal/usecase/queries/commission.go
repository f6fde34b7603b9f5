package queries

import (
	"context"
	"time"

	"booking-engine/internal/domain/commission"
	"booking-engine/internal/domain/pricing"
	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrStrategyNotFound = errs.New("commission strategy not found")
	ErrInvalidQuote     = errs.New("invalid price quote request")
)

type QuoteInput struct {
	BasePrice    decimal.Decimal
	Currency     string
	ResourceType string
	// DurationHours wins over StartAt/EndAt when positive.
	DurationHours float64
	StartAt       *time.Time
	EndAt         *time.Time
}

type CommissionQueries interface {
	GetStrategy(ctx context.Context, id uuid.UUID) (*StrategyView, error)
	ListStrategies(ctx context.Context, activeOnly bool) ([]*StrategyView, error)
	QuotePrice(ctx context.Context, in QuoteInput) (*PriceQuoteView, error)
}

type CommissionReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*commission.Strategy, error)
	FindActive(ctx context.Context) ([]*commission.Strategy, error)
	FindAll(ctx context.Context) ([]*commission.Strategy, error)
}

type commissionQueriesImpl struct {
	readStore       CommissionReadStore
	resolver        *pricing.Resolver
	defaultCurrency string
}

func NewCommissionQueries(readStore CommissionReadStore, resolver *pricing.Resolver, defaultCurrency string) CommissionQueries {
	return &commissionQueriesImpl{
		readStore:       readStore,
		resolver:        resolver,
		defaultCurrency: defaultCurrency,
	}
}

func (q *commissionQueriesImpl) GetStrategy(ctx context.Context, id uuid.UUID) (*StrategyView, error) {
	s, err := q.readStore.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrStrategyNotFound
		}
		return nil, err
	}
	return NewStrategyView(s), nil
}

func (q *commissionQueriesImpl) ListStrategies(ctx context.Context, activeOnly bool) ([]*StrategyView, error) {
	var (
		rows []*commission.Strategy
		err  error
	)
	if activeOnly {
		rows, err = q.readStore.FindActive(ctx)
	} else {
		rows, err = q.readStore.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	views := make([]*StrategyView, 0, len(rows))
	for _, s := range rows {
		views = append(views, NewStrategyView(s))
	}
	return views, nil
}

// QuotePrice resolves pricing exactly as booking creation would, without persisting anything.
func (q *commissionQueriesImpl) QuotePrice(ctx context.Context, in QuoteInput) (*PriceQuoteView, error) {
	hours := in.DurationHours
	if hours <= 0 {
		if in.StartAt == nil || in.EndAt == nil || !in.StartAt.Before(*in.EndAt) {
			return nil, errs.Wrap(ErrInvalidQuote, "duration or a valid start/end is required")
		}
		hours = in.EndAt.Sub(*in.StartAt).Hours()
	}
	currency := in.Currency
	if currency == "" {
		currency = q.defaultCurrency
	}

	strategies, err := q.readStore.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	result, err := q.resolver.Resolve(pricing.Input{
		BasePrice:     in.BasePrice,
		Currency:      currency,
		ResourceType:  in.ResourceType,
		DurationHours: hours,
	}, strategies)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidQuote)
	}
	// same validation a booking's price goes through
	price, err := result.ToPrice()
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidQuote)
	}

	return &PriceQuoteView{
		Subtotal:        price.Base(),
		Commission:      price.Commission(),
		Total:           price.Total(),
		Currency:        price.Currency(),
		DurationHours:   hours,
		AppliedStrategy: NewPriceView(price).AppliedStrategy,
	}, nil
}
