package components

import (
	"log/slog"

	"booking-engine/internal/infra/readstore"
	"booking-engine/internal/infra/repository"
	"booking-engine/internal/infra/storage/memory"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewStores,
	),
)

// Stores exposes the write-side repositories and the read stores the query side needs.
type Stores struct {
	fx.Out

	Bookings      commands.BookingRepository
	Strategies    commands.StrategyRepository
	BookingReads  queries.BookingReadStore
	StrategyReads queries.CommissionReadStore
}

func NewStores(cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) Stores {
	if cfg.DB.UsesMemory() {
		bookings := memory.NewBookingStore(logger)
		strategies := memory.NewStrategyStore(logger)
		return Stores{
			Bookings:      bookings,
			Strategies:    strategies,
			BookingReads:  bookings,
			StrategyReads: strategies,
		}
	}

	strategies := repository.NewStrategyRepository(pool, logger)
	return Stores{
		Bookings:      repository.NewBookingRepository(pool, logger),
		Strategies:    strategies,
		BookingReads:  readstore.NewBookingReadStore(pool, logger),
		StrategyReads: strategies,
	}
}
