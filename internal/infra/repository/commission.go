package repository

import (
	"context"
	"log/slog"

	"booking-engine/internal/domain/commission"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/repository/converter"
	"booking-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const upsertStrategySQL = `INSERT INTO commission_strategies (` + converter.StrategyColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	type = EXCLUDED.type,
	value = EXCLUDED.value,
	is_active = EXCLUDED.is_active,
	priority = EXCLUDED.priority,
	applicable_resource_types = EXCLUDED.applicable_resource_types,
	min_booking_duration_hours = EXCLUDED.min_booking_duration_hours,
	max_booking_duration_hours = EXCLUDED.max_booking_duration_hours,
	updated_at = EXCLUDED.updated_at`

const selectStrategiesSQL = `SELECT ` + converter.StrategyColumns + ` FROM commission_strategies`

type StrategyRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewStrategyRepository(pool *pgxpool.Pool, logger *slog.Logger) *StrategyRepository {
	return &StrategyRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *StrategyRepository) Save(ctx context.Context, s *commission.Strategy) error {
	if _, err := r.pool.Exec(ctx, upsertStrategySQL, converter.StrategyToArgs(s)...); err != nil {
		return infra.WrapPgErr(r.logger, "failed to save commission strategy", err)
	}
	return nil
}

func (r *StrategyRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Strategy, error) {
	return r.findOne(ctx, selectStrategiesSQL+` WHERE id = $1`, pgconv.UUIDToPgtype(id))
}

func (r *StrategyRepository) FindByName(ctx context.Context, name string) (*commission.Strategy, error) {
	return r.findOne(ctx, selectStrategiesSQL+` WHERE name = $1`, name)
}

// FindActive reads every active strategy in one statement, so resolution sees a single snapshot.
func (r *StrategyRepository) FindActive(ctx context.Context) ([]*commission.Strategy, error) {
	return r.findMany(ctx, selectStrategiesSQL+` WHERE is_active ORDER BY created_at, id`)
}

func (r *StrategyRepository) FindAll(ctx context.Context) ([]*commission.Strategy, error) {
	return r.findMany(ctx, selectStrategiesSQL+` ORDER BY created_at, id`)
}

func (r *StrategyRepository) findOne(ctx context.Context, sql string, args ...any) (*commission.Strategy, error) {
	s, err := converter.ScanStrategy(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "commission strategy not found", err)
		}
		return nil, infra.WrapPgErr(r.logger, "failed to find commission strategy", err)
	}
	return s, nil
}

func (r *StrategyRepository) findMany(ctx context.Context, sql string, args ...any) ([]*commission.Strategy, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list commission strategies", err)
	}
	defer rows.Close()

	var out []*commission.Strategy
	for rows.Next() {
		s, err := converter.ScanStrategy(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan commission strategy", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list commission strategies", err)
	}
	return out, nil
}
