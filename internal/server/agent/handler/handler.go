package handler

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Alwanly/service-edge-controller/internal/server/agent/dto"
	"github.com/Alwanly/service-edge-controller/internal/server/agent/usecase"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/wrapper"
)

type Handler struct {
	useCase usecase.IUseCase
	logger  *logger.CanonicalLogger
}

func NewHandler(uc usecase.IUseCase, log *logger.CanonicalLogger) *Handler {
	return &Handler{useCase: uc, logger: log}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/config", h.Config)
}

// Health reports 202 while connecting, 503 when connecting failed and 200 otherwise.
func (h *Handler) Health(c *fiber.Ctx) error {
	response := h.useCase.Health()

	statusCode := fiber.StatusOK
	switch response.Status {
	case dto.StateConnectFailed:
		statusCode = fiber.StatusServiceUnavailable
	case dto.StateConnecting:
		statusCode = fiber.StatusAccepted
	}

	return c.Status(statusCode).JSON(response)
}

// Config returns the last configuration received from the controller.
func (h *Handler) Config(c *fiber.Ctx) error {
	snapshot, ok := h.useCase.Snapshot()
	if !ok {
		res := wrapper.ResponseFailed(http.StatusNotFound, "no configuration received yet", nil)
		return c.Status(res.Code).JSON(res)
	}
	res := wrapper.ResponseSuccess(http.StatusOK, snapshot)
	return c.Status(res.Code).JSON(res)
}
