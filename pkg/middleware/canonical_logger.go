package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Alwanly/service-edge-controller/pkg/logger"
)

// CorrelationHeader lets callers thread their own id through logs and events.
const CorrelationHeader = "X-Correlation-ID"

// CanonicalLoggerMiddleware creates a middleware that logs once per request
func CanonicalLoggerMiddleware(log *logger.CanonicalLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logCtx := logger.NewLogContext()
		c.Locals("log_context", logCtx)

		var reqID string
		if id, ok := c.Locals("requestid").(string); ok {
			reqID = id
			logCtx.AddField(zap.String(logger.FieldRequestID, id))
		}

		correlationID := c.Get(CorrelationHeader)
		if correlationID == "" {
			correlationID = reqID
		}

		userCtx := logger.WithLogContext(c.UserContext(), logCtx)
		if correlationID != "" {
			userCtx = logger.WithCorrelationID(userCtx, correlationID)
		}
		c.SetUserContext(userCtx)

		start := time.Now()

		// runs after recover so panics are logged too
		defer func() {
			duration := time.Since(start)
			status := c.Response().StatusCode()

			fields := []zap.Field{
				zap.String("method", c.Method()),
				zap.String("path", routePath(c)),
				zap.Int("status", status),
				zap.String(logger.FieldSourceIP, ClientIP(c)),
				zap.Duration("duration", duration),
				zap.Int64("duration_ms", duration.Milliseconds()),
			}
			fields = append(fields, logCtx.Fields()...)

			switch {
			case status >= 500:
				log.Error("http_request", fields...)
			case status >= 400:
				log.Info("http_request_client_error", fields...)
			default:
				log.Info("http_request", fields...)
			}
		}()

		return c.Next()
	}
}

// routePath prefers the matched route template so path parameters such as
// connection tokens stay out of the logs.
func routePath(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
		return r.Path
	}
	return c.Path()
}
