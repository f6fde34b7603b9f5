package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"booking-engine/cmd/bootstrap"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func init() {
	// never expose debug output because of a missing setting
	gin.SetMode(gin.ReleaseMode)

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}
}

var rootCmd = &cobra.Command{
	Use:   "booking-engine",
	Short: "Booking lifecycle engine",
	Long: `Booking lifecycle engine: interval locking, availability checks,
commission pricing and the booking state machine behind an HTTP API.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background expiry sweep",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve()
	},
}

var sweepTimeout time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire overdue bookings once and print the result",
	Long: `Expire every PENDING or PAYMENT_PENDING booking whose payment deadline has passed.
Meant for an external scheduler when SWEEP_INTERVAL=0 disables the in-process sweep.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return sweepOnce(cmd.Context())
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepTimeout, "timeout", time.Minute, "upper bound for the sweep")
	rootCmd.AddCommand(serveCmd, sweepCmd)
}

// @title           booking-engine
// @version         1.0
// @description     Booking lifecycle engine API

// @BasePath  /api
// @schemes http https
func startServer(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			gin.EnableJsonDecoderDisallowUnknownFields()
			listenAddr := ":" + cfg.Server.Port
			logger.Info("starting server", "address", listenAddr, "mode", gin.Mode())
			go func() {
				if err := engine.Run(listenAddr); err != nil {
					logger.Error("server failed to start", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("stopping server")
			return nil
		},
	})
}

func startSweeper(lc fx.Lifecycle, sweeper *commands.Sweeper, logger *slog.Logger) {
	if !sweeper.Enabled() {
		logger.Info("in-process expiry sweep disabled")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				sweeper.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func serve() error {
	app := fx.New(
		bootstrap.Module,
		fx.Provide(
			func() *gin.Engine {
				return gin.New()
			},
		),
		fx.Invoke(
			startServer,
			startSweeper,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("application failed to start", "error", err)
		return err
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("application failed to stop cleanly", "error", err)
	}

	slog.Info("application stopped")
	return nil
}

func sweepOnce(ctx context.Context) error {
	var cmds commands.BookingCommands
	app := fx.New(
		bootstrap.CoreModule,
		fx.NopLogger,
		fx.Populate(&cmds),
	)
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			slog.Error("application failed to stop cleanly", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	result, err := cmds.ExpireOverdue(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
