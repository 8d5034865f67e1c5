package middleware

import (
	"net/http"
	"strings"

	authentication "github.com/Alwanly/service-edge-controller/pkg/auth"
	"github.com/gofiber/fiber/v2"
)

type IAuthMiddleware interface {
	// Basic Auth Admin
	BasicAuthAdmin() fiber.Handler
}

type AuthMiddleware struct {
	Basic authentication.IBasicAuthService
}

// mockery:ignore
type AuthConfig func(*AuthOpts)

type AuthOpts struct {
	*authentication.BasicAuthTConfig
}

func SetBasicAuth(basicAuthConfig *authentication.BasicAuthTConfig) AuthConfig {
	return func(o *AuthOpts) {
		o.BasicAuthTConfig = basicAuthConfig
	}
}

func NewAuthMiddleware(opts ...AuthConfig) *AuthMiddleware {
	var o AuthOpts
	for _, opt := range opts {
		opt(&o)
	}

	basicAuth := authentication.NewBasicAuthService(o.BasicAuthTConfig)

	return &AuthMiddleware{
		Basic: basicAuth,
	}
}

func (a *AuthMiddleware) BasicAuthAdmin() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		// get auth from header
		auth := ctx.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(auth, "Basic ") {
			return responseUnauthorized(ctx, "Invalid auth")
		}

		// decode auth
		username, password := a.Basic.DecodeFromHeader(auth)
		if !a.Basic.ValidateAdmin(username, password) {
			return responseUnauthorized(ctx, "Invalid auth")
		}
		return ctx.Next()
	}
}

func responseUnauthorized(c *fiber.Ctx, message string) error {
	c.Set("WWW-Authenticate", "Basic realm=Restricted")
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
