package commands

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

const defaultSweepBatchSize = 500

type SweepResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ExpireOverdue expires every PENDING or PAYMENT_PENDING booking past its payment deadline,
// paging through the overdue set until a short page comes back.
// Bookings another sweep already expired are counted as skipped.
func (o *bookingOrchestrator) ExpireOverdue(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := o.clock.Now()

	batchSize := o.cfg.SweepBatchSize
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}

	// Failed rows stay overdue and come back on every page, so each page is widened
	// by their count and still has room for batchSize unseen bookings.
	seen := make(map[uuid.UUID]struct{})
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		limit := batchSize + result.Failed
		overdue, err := o.bookings.FindOverdue(ctx, now, limit)
		if err != nil {
			return result, errs.Mark(errs.Wrap(err, "failed to find overdue bookings"), ErrDatabaseOperationFailed)
		}

		fresh := 0
		for _, candidate := range overdue {
			if _, done := seen[candidate.ID()]; done {
				continue
			}
			if err := ctx.Err(); err != nil {
				return result, err
			}
			seen[candidate.ID()] = struct{}{}
			fresh++
			o.expireCandidate(ctx, candidate.ID(), now, &result)
		}

		if len(overdue) < limit || fresh == 0 {
			break
		}
	}

	if result.Scanned > 0 {
		o.logger.Info("expire sweep finished",
			"scanned", result.Scanned,
			"expired", result.Expired,
			"skipped", result.Skipped,
			"failed", result.Failed)
	}
	return result, nil
}

// expireCandidate reloads the booking so the version check runs against current state.
func (o *bookingOrchestrator) expireCandidate(ctx context.Context, id uuid.UUID, now time.Time, result *SweepResult) {
	result.Scanned++

	b, err := o.bookings.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			result.Skipped++
			return
		}
		o.logger.Error("sweep failed to reload booking", "booking_id", id, "error", err)
		result.Failed++
		return
	}
	if !b.CanBeExpired() || !b.IsPaymentOverdue(now) {
		result.Skipped++
		return
	}

	event, err := b.Expire(now)
	if err != nil {
		result.Skipped++
		return
	}
	if err := o.bookings.Save(ctx, b); err != nil {
		if infra.IsKind(err, infra.KindStaleVersion) {
			result.Skipped++
			return
		}
		o.logger.Error("sweep failed to expire booking", "booking_id", b.ID(), "error", err)
		result.Failed++
		return
	}

	result.Expired++
	o.publish(ctx, event)
}

// Sweeper drives ExpireOverdue on a fixed interval until its context ends.
type Sweeper struct {
	commands BookingCommands
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(commands BookingCommands, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{commands: commands, interval: interval, logger: logger}
}

func (s *Sweeper) Enabled() bool {
	return s.interval > 0
}

func (s *Sweeper) Run(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.commands.ExpireOverdue(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("expire sweep failed", "error", err)
			}
		}
	}
}
