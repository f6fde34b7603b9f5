package converter

import (
	"encoding/json"
	"fmt"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// BookingColumns is the select list ScanBooking expects, in order.
const BookingColumns = `id, user_id, resource_item_id, start_at, end_at, status,
	base_price, commission, total_price, currency,
	strategy_id, strategy_name, strategy_type, strategy_value,
	notes, payment_deadline, confirmed_at, cancelled_at, completed_at, expired_at, payment_failed_at,
	cancellation_reason, metadata, created_at, updated_at, version`

type BookingRow struct {
	ID                 pgtype.UUID
	UserID             pgtype.UUID
	ResourceItemID     pgtype.UUID
	StartAt            pgtype.Timestamptz
	EndAt              pgtype.Timestamptz
	Status             string
	BasePrice          pgtype.Numeric
	Commission         pgtype.Numeric
	TotalPrice         pgtype.Numeric
	Currency           string
	StrategyID         pgtype.UUID
	StrategyName       pgtype.Text
	StrategyType       pgtype.Text
	StrategyValue      pgtype.Numeric
	Notes              pgtype.Text
	PaymentDeadline    pgtype.Timestamptz
	ConfirmedAt        pgtype.Timestamptz
	CancelledAt        pgtype.Timestamptz
	CompletedAt        pgtype.Timestamptz
	ExpiredAt          pgtype.Timestamptz
	PaymentFailedAt    pgtype.Timestamptz
	CancellationReason pgtype.Text
	Metadata           []byte
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
	Version            int64
}

func ScanBooking(row pgx.Row) (*booking.Booking, error) {
	var r BookingRow
	err := row.Scan(
		&r.ID, &r.UserID, &r.ResourceItemID, &r.StartAt, &r.EndAt, &r.Status,
		&r.BasePrice, &r.Commission, &r.TotalPrice, &r.Currency,
		&r.StrategyID, &r.StrategyName, &r.StrategyType, &r.StrategyValue,
		&r.Notes, &r.PaymentDeadline, &r.ConfirmedAt, &r.CancelledAt, &r.CompletedAt, &r.ExpiredAt, &r.PaymentFailedAt,
		&r.CancellationReason, &r.Metadata, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}
	return BookingToDomain(r)
}

func BookingToDomain(r BookingRow) (*booking.Booking, error) {
	status, err := booking.ParseStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("booking %x: %w", r.ID.Bytes, err)
	}

	base, err := pgconv.DecimalFromNumeric(r.BasePrice)
	if err != nil {
		return nil, err
	}
	commission, err := pgconv.DecimalFromNumeric(r.Commission)
	if err != nil {
		return nil, err
	}
	total, err := pgconv.DecimalFromNumeric(r.TotalPrice)
	if err != nil {
		return nil, err
	}
	price, err := booking.NewPriceWithTotal(base, commission, total, r.Currency)
	if err != nil {
		return nil, err
	}
	if r.StrategyID.Valid {
		value, err := pgconv.DecimalFromNumeric(r.StrategyValue)
		if err != nil {
			return nil, err
		}
		price = price.WithAppliedCommission(booking.AppliedCommission{
			StrategyID: r.StrategyID.Bytes,
			Name:       r.StrategyName.String,
			Type:       r.StrategyType.String,
			Value:      value,
		})
	}

	var metadata map[string]any
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("decode booking metadata: %w", err)
		}
	}

	return booking.Reconstruct(booking.ReconstructParams{
		ID:                 r.ID.Bytes,
		UserID:             r.UserID.Bytes,
		ResourceItemID:     r.ResourceItemID.Bytes,
		Period:             booking.ReconstructPeriod(pgconv.TimeFromPgtype(r.StartAt), pgconv.TimeFromPgtype(r.EndAt)),
		Price:              price,
		Status:             status,
		Notes:              pgconv.StringPtrFromPgtype(r.Notes),
		PaymentDeadline:    pgconv.TimePtrFromPgtype(r.PaymentDeadline),
		ConfirmedAt:        pgconv.TimePtrFromPgtype(r.ConfirmedAt),
		CancelledAt:        pgconv.TimePtrFromPgtype(r.CancelledAt),
		CompletedAt:        pgconv.TimePtrFromPgtype(r.CompletedAt),
		ExpiredAt:          pgconv.TimePtrFromPgtype(r.ExpiredAt),
		PaymentFailedAt:    pgconv.TimePtrFromPgtype(r.PaymentFailedAt),
		CancellationReason: pgconv.StringPtrFromPgtype(r.CancellationReason),
		Metadata:           metadata,
		CreatedAt:          pgconv.TimeFromPgtype(r.CreatedAt),
		UpdatedAt:          pgconv.TimeFromPgtype(r.UpdatedAt),
		Version:            r.Version,
	}), nil
}

// BookingLifecycleArgs returns the update arguments for the mutable columns, ending with
// the version the caller expects to overwrite.
func BookingLifecycleArgs(b *booking.Booking) ([]any, error) {
	metadata, err := encodeMetadata(b.Metadata())
	if err != nil {
		return nil, err
	}
	return []any{
		pgconv.UUIDToPgtype(b.ID()),
		b.Status().String(),
		pgconv.TimePtrToPgtype(b.PaymentDeadline()),
		pgconv.TimePtrToPgtype(b.ConfirmedAt()),
		pgconv.TimePtrToPgtype(b.CancelledAt()),
		pgconv.TimePtrToPgtype(b.CompletedAt()),
		pgconv.TimePtrToPgtype(b.ExpiredAt()),
		pgconv.TimePtrToPgtype(b.PaymentFailedAt()),
		pgconv.StringPtrToPgtype(b.CancellationReason()),
		metadata,
		pgconv.TimeToPgtype(b.UpdatedAt()),
		b.Version(),
	}, nil
}

func encodeMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode booking metadata: %w", err)
	}
	return encoded, nil
}

// BookingToArgs returns the insert arguments in BookingColumns order, minus version.
func BookingToArgs(b *booking.Booking) ([]any, error) {
	metadata, err := encodeMetadata(b.Metadata())
	if err != nil {
		return nil, err
	}

	price := b.Price()
	strategyID := pgtype.UUID{}
	strategyName := pgtype.Text{}
	strategyType := pgtype.Text{}
	strategyValue := pgtype.Numeric{}
	if applied := price.AppliedCommission(); applied != nil {
		strategyID = pgconv.UUIDToPgtype(applied.StrategyID)
		strategyName = pgconv.StringToPgtype(applied.Name)
		strategyType = pgconv.StringToPgtype(applied.Type)
		strategyValue = pgconv.DecimalToNumeric(applied.Value)
	}

	return []any{
		pgconv.UUIDToPgtype(b.ID()),
		pgconv.UUIDToPgtype(b.UserID()),
		pgconv.UUIDToPgtype(b.ResourceItemID()),
		pgconv.TimeToPgtype(b.Period().Start()),
		pgconv.TimeToPgtype(b.Period().End()),
		b.Status().String(),
		pgconv.DecimalToNumeric(price.Base()),
		pgconv.DecimalToNumeric(price.Commission()),
		pgconv.DecimalToNumeric(price.Total()),
		price.Currency(),
		strategyID,
		strategyName,
		strategyType,
		strategyValue,
		pgconv.StringPtrToPgtype(b.Notes()),
		pgconv.TimePtrToPgtype(b.PaymentDeadline()),
		pgconv.TimePtrToPgtype(b.ConfirmedAt()),
		pgconv.TimePtrToPgtype(b.CancelledAt()),
		pgconv.TimePtrToPgtype(b.CompletedAt()),
		pgconv.TimePtrToPgtype(b.ExpiredAt()),
		pgconv.TimePtrToPgtype(b.PaymentFailedAt()),
		pgconv.StringPtrToPgtype(b.CancellationReason()),
		metadata,
		pgconv.TimeToPgtype(b.CreatedAt()),
		pgconv.TimeToPgtype(b.UpdatedAt()),
	}, nil
}
