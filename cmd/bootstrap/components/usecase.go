package components

import (
	"log/slog"

	"booking-engine/internal/domain/pricing"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	pricing.NewResolver,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewBookingUseCase,
		commands.NewCommissionUseCase,
		func(cmds commands.BookingCommands, cfg config.Config, logger *slog.Logger) *commands.Sweeper {
			return commands.NewSweeper(cmds, cfg.Sweep.Interval, logger)
		},
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
		func(readStore queries.CommissionReadStore, resolver *pricing.Resolver, cfg config.BookingConfig) queries.CommissionQueries {
			return queries.NewCommissionQueries(readStore, resolver, cfg.DefaultCurrency)
		},
	),
)
