package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"booking-engine/internal/handler/api"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	logger *slog.Logger,
	bookingHandler *api.BookingHandler,
	commissionHandler *api.CommissionHandler,
) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, bookingHandler, commissionHandler)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery(logger))
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS, logger))
	engine.Use(middleware.LoggingMiddleware(logger, cfg.Log))
	engine.Use(middleware.ErrorHandler(logger))
}

func setupRoutes(engine *gin.Engine, bookingHandler *api.BookingHandler, commissionHandler *api.CommissionHandler) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	apiGroup.Use(middleware.RequestIdentity())
	{
		bookings := apiGroup.Group("/bookings")
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "", Handler: bookingHandler.Create},
				{Method: http.MethodGet, Path: "", Handler: bookingHandler.List},
				{Method: http.MethodGet, Path: "/statistics", Handler: bookingHandler.Statistics},
				{Method: http.MethodPost, Path: "/expire-overdue", Handler: bookingHandler.ExpireOverdue},
				{Method: http.MethodGet, Path: "/:id", Handler: bookingHandler.Get},
				{Method: http.MethodPost, Path: "/:id/confirm", Handler: bookingHandler.Confirm},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: bookingHandler.Cancel},
				{Method: http.MethodPost, Path: "/:id/complete", Handler: bookingHandler.Complete},
				{Method: http.MethodPost, Path: "/:id/expire", Handler: bookingHandler.Expire},
				{Method: http.MethodPost, Path: "/:id/payment-pending", Handler: bookingHandler.MarkPaymentPending},
				{Method: http.MethodPost, Path: "/:id/payment-failed", Handler: bookingHandler.MarkPaymentFailed},
				{Method: http.MethodPost, Path: "/:id/payment", Handler: bookingHandler.ProcessPayment},
			})
		}

		resourceItems := apiGroup.Group("/resource-items")
		{
			addRoutes(resourceItems, []route{
				{Method: http.MethodGet, Path: "/:id/availability", Handler: bookingHandler.Availability},
			})
		}

		strategies := apiGroup.Group("/commission-strategies")
		{
			addRoutes(strategies, []route{
				{Method: http.MethodPost, Path: "", Handler: commissionHandler.Create},
				{Method: http.MethodGet, Path: "", Handler: commissionHandler.List},
				{Method: http.MethodGet, Path: "/:id", Handler: commissionHandler.Get},
				{Method: http.MethodPut, Path: "/:id", Handler: commissionHandler.Update},
				{Method: http.MethodPost, Path: "/:id/activate", Handler: commissionHandler.Activate},
				{Method: http.MethodPost, Path: "/:id/deactivate", Handler: commissionHandler.Deactivate},
			})
		}

		addRoutes(apiGroup.Group("/pricing"), []route{
			{Method: http.MethodPost, Path: "/quote", Handler: commissionHandler.Quote},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
