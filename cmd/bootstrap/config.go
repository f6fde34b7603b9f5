package bootstrap

import (
	"booking-engine/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
	),
	ConfigViews,
)

// ConfigViews hands the sub-configs to constructors that only need one section.
var ConfigViews = fx.Provide(
	func(cfg config.Config) config.LockConfig { return cfg.Lock },
	func(cfg config.Config) config.BookingConfig { return cfg.Booking },
)
