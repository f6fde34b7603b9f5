package readstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/repository"
	"booking-engine/internal/infra/repository/converter"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingReadStore serves list and statistics queries; single-row and conflict lookups
// reuse the write repository's SQL.
type BookingReadStore struct {
	*repository.BookingRepository
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewBookingReadStore(pool *pgxpool.Pool, logger *slog.Logger) *BookingReadStore {
	return &BookingReadStore{
		BookingRepository: repository.NewBookingRepository(pool, logger),
		pool:              pool,
		logger:            logger,
	}
}

func (r *BookingReadStore) List(ctx context.Context, filter queries.BookingFilter) ([]*booking.Booking, int, error) {
	where, args := buildWhere(filter)

	var total int
	countSQL := `SELECT count(*) FROM bookings` + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, infra.WrapPgErr(r.logger, "failed to count bookings", err)
	}

	listSQL := fmt.Sprintf(`SELECT %s FROM bookings%s ORDER BY start_at, id LIMIT $%d OFFSET $%d`,
		converter.BookingColumns, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, listSQL, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, infra.WrapPgErr(r.logger, "failed to list bookings", err)
	}
	defer rows.Close()

	items := make([]*booking.Booking, 0, filter.Limit)
	for rows.Next() {
		b, err := converter.ScanBooking(rows)
		if err != nil {
			return nil, 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan booking", err)
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, infra.WrapPgErr(r.logger, "failed to list bookings", err)
	}
	return items, total, nil
}

func (r *BookingReadStore) Statistics(ctx context.Context, filter queries.BookingFilter) (*queries.BookingStatistics, error) {
	where, args := buildWhere(filter)
	stats := &queries.BookingStatistics{ByStatus: make(map[string]int)}

	statusRows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM bookings`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to count bookings by status", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var (
			status string
			count  int
		)
		if err := statusRows.Scan(&status, &count); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan status count", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := statusRows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to count bookings by status", err)
	}

	revenueWhere := where + " AND status IN ('CONFIRMED', 'COMPLETED')"
	if where == "" {
		revenueWhere = " WHERE status IN ('CONFIRMED', 'COMPLETED')"
	}
	revenueRows, err := r.pool.Query(ctx, `SELECT currency, sum(base_price), sum(commission), sum(total_price)
FROM bookings`+revenueWhere+` GROUP BY currency ORDER BY currency`, args...)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to sum booking revenue", err)
	}
	defer revenueRows.Close()
	for revenueRows.Next() {
		var (
			currency                string
			base, commission, total pgtype.Numeric
		)
		if err := revenueRows.Scan(&currency, &base, &commission, &total); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan revenue", err)
		}
		rv := queries.RevenueView{Currency: strings.TrimSpace(currency)}
		if rv.Base, err = pgconv.DecimalFromNumeric(base); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "invalid revenue amount", err)
		}
		if rv.Commission, err = pgconv.DecimalFromNumeric(commission); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "invalid revenue amount", err)
		}
		if rv.Total, err = pgconv.DecimalFromNumeric(total); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "invalid revenue amount", err)
		}
		stats.Revenue = append(stats.Revenue, rv)
	}
	if err := revenueRows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to sum booking revenue", err)
	}
	return stats, nil
}

func buildWhere(filter queries.BookingFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("user_id = $%d", pgconv.UUIDToPgtype(*filter.UserID))
	}
	if filter.ResourceItemID != nil {
		add("resource_item_id = $%d", pgconv.UUIDToPgtype(*filter.ResourceItemID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, s.String())
		}
		add("status = ANY($%d)", statuses)
	}
	if filter.From != nil {
		add("end_at > $%d", timeArg(*filter.From))
	}
	if filter.To != nil {
		add("start_at < $%d", timeArg(*filter.To))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func timeArg(t time.Time) pgtype.Timestamptz {
	return pgconv.TimeToPgtype(t.UTC())
}

var _ queries.BookingReadStore = (*BookingReadStore)(nil)

