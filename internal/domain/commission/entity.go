package commission

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"booking-engine/internal/domain/shared"
	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const MaxNameLength = 100

var (
	ErrInvalidName     = errs.New("strategy name must be 1-100 characters")
	ErrInvalidType     = errs.New("strategy type must be PERCENTAGE or FIXED_AMOUNT")
	ErrInvalidValue    = errs.New("invalid strategy value")
	ErrInvalidDuration = errs.New("invalid booking duration bounds")
	ErrAlreadyActive   = errs.New("strategy is already active")
	ErrAlreadyInactive = errs.New("strategy is already inactive")
)

var hundred = decimal.NewFromInt(100)

type Strategy struct {
	id                      uuid.UUID
	name                    string
	strategyType            Type
	value                   decimal.Decimal
	isActive                bool
	priority                int
	applicableResourceTypes []string
	minBookingDurationHours *float64
	maxBookingDurationHours *float64
	createdAt               time.Time
	updatedAt               time.Time
}

// Params is shared by creation and update; both apply the same validation.
type Params struct {
	Name                    string
	Type                    Type
	Value                   decimal.Decimal
	Priority                int
	ApplicableResourceTypes []string
	MinBookingDurationHours *float64
	MaxBookingDurationHours *float64
}

type validated struct {
	name          string
	resourceTypes []string
}

func (p Params) validate() (validated, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" || len([]rune(name)) > MaxNameLength {
		return validated{}, ErrInvalidName
	}
	if !p.Type.IsValid() {
		return validated{}, ErrInvalidType
	}
	if p.Value.IsNegative() {
		return validated{}, errs.Wrapf(ErrInvalidValue, "value %s must not be negative", p.Value.String())
	}
	if p.Type == TypePercentage && p.Value.GreaterThan(hundred) {
		return validated{}, errs.Wrapf(ErrInvalidValue, "percentage %s exceeds 100", p.Value.String())
	}
	if p.MinBookingDurationHours != nil && *p.MinBookingDurationHours < 0 {
		return validated{}, ErrInvalidDuration
	}
	if p.MaxBookingDurationHours != nil && *p.MaxBookingDurationHours < 0 {
		return validated{}, ErrInvalidDuration
	}
	if p.MinBookingDurationHours != nil && p.MaxBookingDurationHours != nil &&
		*p.MinBookingDurationHours > *p.MaxBookingDurationHours {
		return validated{}, errs.Wrapf(ErrInvalidDuration, "min %.2fh is greater than max %.2fh",
			*p.MinBookingDurationHours, *p.MaxBookingDurationHours)
	}

	return validated{name: name, resourceTypes: normalizeResourceTypes(p.ApplicableResourceTypes)}, nil
}

// New creates an active strategy.
func New(id uuid.UUID, p Params, now time.Time) (*Strategy, shared.Event, error) {
	v, err := p.validate()
	if err != nil {
		return nil, nil, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	now = now.UTC()

	s := &Strategy{
		id:                      id,
		name:                    v.name,
		strategyType:            p.Type,
		value:                   p.Value,
		isActive:                true,
		priority:                p.Priority,
		applicableResourceTypes: v.resourceTypes,
		minBookingDurationHours: p.MinBookingDurationHours,
		maxBookingDurationHours: p.MaxBookingDurationHours,
		createdAt:               now,
		updatedAt:               now,
	}
	return s, CreatedEvent{EventBase: s.eventBase(now), Type: s.strategyType, Value: s.value}, nil
}

func Reconstruct(
	id uuid.UUID,
	name string,
	strategyType Type,
	value decimal.Decimal,
	isActive bool,
	priority int,
	applicableResourceTypes []string,
	minHours, maxHours *float64,
	createdAt, updatedAt time.Time,
) *Strategy {
	return &Strategy{
		id:                      id,
		name:                    name,
		strategyType:            strategyType,
		value:                   value,
		isActive:                isActive,
		priority:                priority,
		applicableResourceTypes: applicableResourceTypes,
		minBookingDurationHours: minHours,
		maxBookingDurationHours: maxHours,
		createdAt:               createdAt,
		updatedAt:               updatedAt,
	}
}

func (s *Strategy) Update(p Params, now time.Time) (shared.Event, error) {
	v, err := p.validate()
	if err != nil {
		return nil, err
	}
	s.name = v.name
	s.strategyType = p.Type
	s.value = p.Value
	s.priority = p.Priority
	s.applicableResourceTypes = v.resourceTypes
	s.minBookingDurationHours = p.MinBookingDurationHours
	s.maxBookingDurationHours = p.MaxBookingDurationHours
	s.updatedAt = now.UTC()
	return UpdatedEvent{EventBase: s.eventBase(now), Type: s.strategyType, Value: s.value}, nil
}

func (s *Strategy) Activate(now time.Time) (shared.Event, error) {
	if s.isActive {
		return nil, ErrAlreadyActive
	}
	s.isActive = true
	s.updatedAt = now.UTC()
	return ActivatedEvent{EventBase: s.eventBase(now)}, nil
}

func (s *Strategy) Deactivate(now time.Time) (shared.Event, error) {
	if !s.isActive {
		return nil, ErrAlreadyInactive
	}
	s.isActive = false
	s.updatedAt = now.UTC()
	return DeactivatedEvent{EventBase: s.eventBase(now)}, nil
}

// AppliesTo reports whether the strategy matches the resource type and booking duration.
// An empty resource type set matches every type.
func (s *Strategy) AppliesTo(resourceType string, durationHours float64) bool {
	if !s.isActive {
		return false
	}
	if len(s.applicableResourceTypes) > 0 &&
		!slices.Contains(s.applicableResourceTypes, normalizeResourceType(resourceType)) {
		return false
	}
	if s.minBookingDurationHours != nil && durationHours < *s.minBookingDurationHours {
		return false
	}
	if s.maxBookingDurationHours != nil && durationHours > *s.maxBookingDurationHours {
		return false
	}
	return true
}

// Calculate returns the commission for a subtotal, unrounded.
func (s *Strategy) Calculate(subtotal decimal.Decimal) decimal.Decimal {
	switch s.strategyType {
	case TypePercentage:
		return subtotal.Mul(s.value).Div(hundred)
	case TypeFixedAmount:
		return s.value
	default:
		return decimal.Zero
	}
}

func (s *Strategy) eventBase(now time.Time) EventBase {
	return EventBase{StrategyID: s.id, Name: s.name, At: now.UTC()}
}

func (s *Strategy) String() string {
	return fmt.Sprintf("%s(%s %s, priority %d)", s.name, s.strategyType, s.value.String(), s.priority)
}

func (s *Strategy) ID() uuid.UUID                     { return s.id }
func (s *Strategy) Name() string                      { return s.name }
func (s *Strategy) Type() Type                        { return s.strategyType }
func (s *Strategy) Value() decimal.Decimal            { return s.value }
func (s *Strategy) IsActive() bool                    { return s.isActive }
func (s *Strategy) Priority() int                     { return s.priority }
func (s *Strategy) ApplicableResourceTypes() []string { return slices.Clone(s.applicableResourceTypes) }
func (s *Strategy) MinBookingDurationHours() *float64 { return s.minBookingDurationHours }
func (s *Strategy) MaxBookingDurationHours() *float64 { return s.maxBookingDurationHours }
func (s *Strategy) CreatedAt() time.Time              { return s.createdAt }
func (s *Strategy) UpdatedAt() time.Time              { return s.updatedAt }

func (s *Strategy) Equals(other *Strategy) bool {
	return other != nil && shared.SameIdentity(s, other)
}

var _ shared.Equatable[*Strategy] = (*Strategy)(nil)

func normalizeResourceType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

func normalizeResourceTypes(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		n := normalizeResourceType(t)
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
