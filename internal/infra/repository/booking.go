package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/infra/repository/converter"
	"booking-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertBookingSQL = `INSERT INTO bookings (` + converter.BookingColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
	$21, $22, $23, $24, $25, 1)
RETURNING version`

// Period, price and ownership are immutable after creation; only lifecycle columns change.
const updateBookingSQL = `UPDATE bookings SET
	status = $2,
	payment_deadline = $3,
	confirmed_at = $4,
	cancelled_at = $5,
	completed_at = $6,
	expired_at = $7,
	payment_failed_at = $8,
	cancellation_reason = $9,
	metadata = $10,
	updated_at = $11,
	version = version + 1
WHERE id = $1 AND version = $12
RETURNING version`

const findBookingByIDSQL = `SELECT ` + converter.BookingColumns + ` FROM bookings WHERE id = $1`

const findConflictingSQL = `SELECT ` + converter.BookingColumns + ` FROM bookings
WHERE resource_item_id = $1
	AND status IN ('PENDING', 'CONFIRMED', 'PAYMENT_PENDING')
	AND tstzrange(start_at, end_at, '[)') && tstzrange($2, $3, '[)')
	AND ($4::uuid IS NULL OR id <> $4)
ORDER BY start_at, id`

const findOverdueSQL = `SELECT ` + converter.BookingColumns + ` FROM bookings
WHERE status IN ('PENDING', 'PAYMENT_PENDING')
	AND payment_deadline < $1
ORDER BY payment_deadline, id
LIMIT $2`

type BookingRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewBookingRepository(pool *pgxpool.Pool, logger *slog.Logger) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	sql := insertBookingSQL
	args, err := converter.BookingToArgs(b)
	if b.Version() != 0 {
		sql = updateBookingSQL
		args, err = converter.BookingLifecycleArgs(b)
	}
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode booking", err)
	}

	version, err := db.WithDefaultRetry(ctx, r.pool, func(tx db.DBTX) (int64, error) {
		var v int64
		err := tx.QueryRow(ctx, sql, args...).Scan(&v)
		return v, err
	})
	if err != nil {
		if b.Version() != 0 && pgconv.IsNoRows(err) {
			return infra.WrapRepoErr(r.logger, infra.KindStaleVersion, "booking version mismatch", err)
		}
		return infra.WrapPgErr(r.logger, "failed to save booking", err)
	}

	b.MarkPersisted(version)
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := converter.ScanBooking(r.pool.QueryRow(ctx, findBookingByIDSQL, pgconv.UUIDToPgtype(id)))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "booking not found", err)
		}
		return nil, infra.WrapPgErr(r.logger, "failed to find booking by ID", err)
	}
	return b, nil
}

func (r *BookingRepository) FindConflicting(
	ctx context.Context,
	resourceItemID uuid.UUID,
	period booking.Period,
	excludeID *uuid.UUID,
) ([]*booking.Booking, error) {
	return r.queryBookings(ctx, "failed to find conflicting bookings", findConflictingSQL,
		pgconv.UUIDToPgtype(resourceItemID),
		pgconv.TimeToPgtype(period.Start()),
		pgconv.TimeToPgtype(period.End()),
		pgconv.UUIDPtrToPgtype(excludeID),
	)
}

func (r *BookingRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = 500
	}
	return r.queryBookings(ctx, "failed to find overdue bookings", findOverdueSQL, pgconv.TimeToPgtype(now), limit)
}

func (r *BookingRepository) queryBookings(ctx context.Context, msg, sql string, args ...any) ([]*booking.Booking, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, msg, err)
	}
	defer rows.Close()

	var out []*booking.Booking
	for rows.Next() {
		b, err := converter.ScanBooking(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, fmt.Sprintf("%s: scan", msg), err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, msg, err)
	}
	return out, nil
}
