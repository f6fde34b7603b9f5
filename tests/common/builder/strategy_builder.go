//go:build unit || e2e

package builder

import (
	"time"

	"booking-engine/internal/domain/commission"
	reqdto "booking-engine/internal/handler/dto/request"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StrategyBuilder struct {
	ID            uuid.UUID
	Name          string
	Type          commission.Type
	Value         decimal.Decimal
	Priority      int
	ResourceTypes []string
	MinHours      *float64
	MaxHours      *float64
	Active        bool
	CreatedAt     time.Time
}

func NewStrategyBuilder() *StrategyBuilder {
	return &StrategyBuilder{
		ID:        uuid.New(),
		Name:      "standard-10",
		Type:      commission.TypePercentage,
		Value:     decimal.NewFromInt(10),
		Priority:  0,
		Active:    true,
		CreatedAt: BaseTime.Add(-24 * time.Hour),
	}
}

func (s *StrategyBuilder) With(mutate func(*StrategyBuilder)) *StrategyBuilder {
	mutate(s)
	return s
}

func (s *StrategyBuilder) BuildParams() commission.Params {
	return commission.Params{
		Name:                    s.Name,
		Type:                    s.Type,
		Value:                   s.Value,
		Priority:                s.Priority,
		ApplicableResourceTypes: s.ResourceTypes,
		MinBookingDurationHours: s.MinHours,
		MaxBookingDurationHours: s.MaxHours,
	}
}

// BuildDomain validates through commission.New, then applies Active.
func (s *StrategyBuilder) BuildDomain() (*commission.Strategy, error) {
	created, _, err := commission.New(s.ID, s.BuildParams(), s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if !s.Active {
		if _, err := created.Deactivate(s.CreatedAt); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (s *StrategyBuilder) MustBuild() *commission.Strategy {
	built, err := s.BuildDomain()
	if err != nil {
		panic(err)
	}
	return built
}

func (s *StrategyBuilder) BuildRequestDTO() reqdto.StrategyRequest {
	return reqdto.StrategyRequest{
		Name:                    s.Name,
		Type:                    s.Type.String(),
		Value:                   s.Value.String(),
		Priority:                s.Priority,
		ApplicableResourceTypes: s.ResourceTypes,
		MinBookingDurationHours: s.MinHours,
		MaxBookingDurationHours: s.MaxHours,
	}
}
