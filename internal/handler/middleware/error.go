package middleware

import (
	"log/slog"
	"net/http"

	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last public error a handler attached and logs the cause behind it.
// Handlers that already wrote a body are left alone.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, ginErr := range c.Errors {
			logHandlerError(logger, c, ginErr)
		}

		if c.Writer.Written() {
			return
		}
		for i := len(c.Errors) - 1; i >= 0; i-- {
			err := c.Errors[i]

			if err.IsType(gin.ErrorTypePublic) {
				if resp, ok := err.Meta.(httperr.Response); ok {
					c.JSON(resp.Status, resp)
					return
				}
			}
		}
		if status := c.Writer.Status(); status != http.StatusOK {
			c.Status(status)
			c.Writer.WriteHeaderNow()
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Internal server error"}})
	}
}

// conflicts and lock contention are normal traffic for a booking API; only 5xx is an error
func logHandlerError(logger *slog.Logger, c *gin.Context, ginErr *gin.Error) {
	status := c.Writer.Status()
	if resp, ok := ginErr.Meta.(httperr.Response); ok {
		status = resp.Status
	}

	attrs := []any{
		slog.String("request_id", GetRequestID(c)),
		slog.String("path", c.FullPath()),
		slog.Int("status", status),
		slog.String("error", ginErr.Err.Error()),
	}
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		attrs = append(attrs, slog.Any("stack", errs.ExtractStackLines(ginErr.Err, 5)))
		logger.Error("request failed", attrs...)
	case status == http.StatusServiceUnavailable:
		logger.Warn("request rejected", attrs...)
	default:
		logger.Debug("request rejected", attrs...)
	}
}

func CustomRecovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("recovered from panic",
					"error", err,
					"path", c.Request.URL.Path,
					"request_id", GetRequestID(c))

				resp := httperr.Response{Status: http.StatusInternalServerError}
				resp.Error.Message = "Internal server error"

				c.JSON(http.StatusInternalServerError, resp)
				c.Abort()
			}
		}()
		c.Next()
	}
}
