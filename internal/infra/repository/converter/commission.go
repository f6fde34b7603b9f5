package converter

import (
	"booking-engine/internal/domain/commission"
	"booking-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const StrategyColumns = `id, name, type, value, is_active, priority, applicable_resource_types,
	min_booking_duration_hours, max_booking_duration_hours, created_at, updated_at`

func ScanStrategy(row pgx.Row) (*commission.Strategy, error) {
	var (
		id            pgtype.UUID
		name          string
		strategyType  string
		value         pgtype.Numeric
		isActive      bool
		priority      int32
		resourceTypes []string
		minHours      pgtype.Float8
		maxHours      pgtype.Float8
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)
	if err := row.Scan(&id, &name, &strategyType, &value, &isActive, &priority, &resourceTypes,
		&minHours, &maxHours, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	t, err := commission.ParseType(strategyType)
	if err != nil {
		return nil, err
	}
	v, err := pgconv.DecimalFromNumeric(value)
	if err != nil {
		return nil, err
	}

	return commission.Reconstruct(
		id.Bytes,
		name,
		t,
		v,
		isActive,
		int(priority),
		resourceTypes,
		pgconv.Float64PtrFromPgtype(minHours),
		pgconv.Float64PtrFromPgtype(maxHours),
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}

func StrategyToArgs(s *commission.Strategy) []any {
	resourceTypes := s.ApplicableResourceTypes()
	if resourceTypes == nil {
		resourceTypes = []string{}
	}
	return []any{
		pgconv.UUIDToPgtype(s.ID()),
		s.Name(),
		s.Type().String(),
		pgconv.DecimalToNumeric(s.Value()),
		s.IsActive(),
		int32(s.Priority()), // #nosec G115 -- priorities are small
		resourceTypes,
		pgconv.Float64PtrToPgtype(s.MinBookingDurationHours()),
		pgconv.Float64PtrToPgtype(s.MaxBookingDurationHours()),
		pgconv.TimeToPgtype(s.CreatedAt()),
		pgconv.TimeToPgtype(s.UpdatedAt()),
	}
}
