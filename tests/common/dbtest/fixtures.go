//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"booking-engine/internal/domain/commission"
	"booking-engine/internal/infra/repository/converter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// InsertStrategy writes a strategy row directly, bypassing the API.
func InsertStrategy(t *testing.T, db DBLike, s *commission.Strategy) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"INSERT INTO commission_strategies ("+converter.StrategyColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)",
		converter.StrategyToArgs(s)...)
	require.NoError(t, err)
}

func CountActiveBookings(t *testing.T, db DBLike, resourceItemID uuid.UUID) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM bookings WHERE resource_item_id = $1 AND status IN ('PENDING', 'CONFIRMED', 'PAYMENT_PENDING')",
		resourceItemID).Scan(&n)
	require.NoError(t, err)
	return n
}

// BookingStatus reads the stored status, independent of any read model.
func BookingStatus(t *testing.T, db DBLike, id uuid.UUID) string {
	t.Helper()

	var status string
	err := db.QueryRow(context.Background(), "SELECT status FROM bookings WHERE id = $1", id).Scan(&status)
	require.NoError(t, err)
	return status
}

// ForcePaymentDeadline moves a booking's payment deadline so sweeps can be exercised without waiting.
func ForcePaymentDeadline(t *testing.T, db DBLike, id uuid.UUID, deadline time.Time) {
	t.Helper()

	tag, err := db.Exec(context.Background(), "UPDATE bookings SET payment_deadline = $2 WHERE id = $1", id, deadline)
	require.NoError(t, err)
	require.Equal(t, int64(1), tag.RowsAffected())
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
