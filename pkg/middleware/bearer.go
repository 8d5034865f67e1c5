package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/wrapper"
)

const BearerTokenContextKey = "bearer_token"

// BearerToken requires an "Authorization: Bearer <token>" header and stores the
// token in locals. Checking the token against an agent is left to the usecase.
func BearerToken(log *logger.CanonicalLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Debug("missing authorization header",
				zap.String("path", c.Path()),
				zap.String("ip", ClientIP(c)),
			)
			return unauthorized(c, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			log.Debug("malformed authorization header",
				zap.String("path", c.Path()),
			)
			return unauthorized(c, "malformed authorization header")
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			log.Debug("empty bearer token",
				zap.String("path", c.Path()),
			)
			return unauthorized(c, "empty bearer token")
		}

		c.Locals(BearerTokenContextKey, token)
		return c.Next()
	}
}

// BearerTokenFrom returns the token stored by BearerToken.
func BearerTokenFrom(c *fiber.Ctx) string {
	token, _ := c.Locals(BearerTokenContextKey).(string)
	return token
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(wrapper.ResponseFailed(http.StatusUnauthorized, message, nil))
}
