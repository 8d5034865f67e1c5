package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/wrapper"
)

// ErrorHandler renders errors that escaped a handler in the standard envelope.
// fiber errors keep their status; anything else goes through the apperror mapping.
func ErrorHandler(log *logger.CanonicalLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var res wrapper.JSONResult
		var fe *fiber.Error
		if errors.As(err, &fe) {
			res = wrapper.ResponseFailed(fe.Code, fe.Message, nil)
		} else {
			res = wrapper.ResponseError(err)
		}

		if res.Code >= fiber.StatusInternalServerError {
			log.HTTPError(c.Method(), routePath(c), res.Code, err)
		}

		return c.Status(res.Code).JSON(res)
	}
}
