package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Alwanly/service-edge-controller/internal/config"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/repository"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/usecase"
	"github.com/Alwanly/service-edge-controller/pkg/deps"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/middleware"
	"github.com/Alwanly/service-edge-controller/pkg/validator"
	"github.com/Alwanly/service-edge-controller/pkg/wrapper"
)

type Handler struct {
	Logger     *logger.CanonicalLogger
	UseCase    usecase.UseCaseInterface
	Config     *config.ControllerConfig
	Middleware *middleware.AuthMiddleware
}

func NewHandler(d deps.App, cfg *config.ControllerConfig) *Handler {

	repo := repository.NewRepository(d.Database, d.Pub)

	uc := usecase.NewUseCase(usecase.UseCase{
		Repo:    repo,
		Config:  cfg,
		Logger:  d.Logger,
		GeoIP:   d.GeoIP,
		Metrics: d.Metrics,
	})

	h := &Handler{
		Logger:     d.Logger,
		UseCase:    uc,
		Config:     cfg,
		Middleware: d.Middleware,
	}

	h.Routes(d.Fiber)

	if d.Registry != nil {
		d.Fiber.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// liveness sweep runs next to the API
	if d.Poller != nil && cfg.SweepInterval > 0 {
		d.Poller.RegisterFetchFunc("agent-liveness-sweep", uc.SweepInactive, pollConfig(cfg))
	}

	return h
}

// Routes mounts every controller endpoint on app.
func (h *Handler) Routes(app fiber.Router) {
	// Health check endpoint (no auth required)
	app.Get("/health", h.health)

	// Agent endpoints: the token and the agent key are the credentials
	agentRoutes := app.Group("/api/agent")
	agentRoutes.Get("/connect/:token", h.connect)
	agentRoutes.Post("/poll", middleware.BearerToken(h.Logger), h.poll)

	// Management endpoints for agents (admin only)
	adminRoutes := app.Group("/agents", h.Middleware.BasicAuthAdmin())
	adminRoutes.Post("", h.createAgent)
	adminRoutes.Get("", h.listAgents)
	adminRoutes.Get(":id", h.getAgent)
	adminRoutes.Put(":id/interval", h.updateAgentInterval)
	adminRoutes.Delete(":id", h.deleteAgent)

	domainRoutes := app.Group("/domains", h.Middleware.BasicAuthAdmin())
	domainRoutes.Post("", h.createDomain)
	domainRoutes.Get(":id/anycast", h.anycast)

	app.Post("/proxies", h.Middleware.BasicAuthAdmin(), h.createProxy)
}

// connect godoc
// @Summary      Redeem a connection token
// @Description  Exchange a single-use connection token for the agent's persistent credentials
// @Tags         agent
// @Produce      json
// @Param        token path string true "Connection token"
// @Success      200 {object} dto.ConnectResponse "Agent connected"
// @Failure      404 {object} wrapper.JSONResult "Token unknown or expired"
// @Failure      409 {object} wrapper.JSONResult "Token already used"
// @Failure      503 {object} wrapper.JSONResult "Registry unavailable, retry"
// @Router       /api/agent/connect/{token} [get]
func (h *Handler) connect(c *fiber.Ctx) error {
	resp, err := h.UseCase.Connect(c.UserContext(), c.Params("token"), middleware.ClientIP(c))
	if err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		res := wrapper.ResponseError(err)
		return c.Status(res.Code).JSON(res)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// poll godoc
// @Summary      Poll configuration
// @Description  Record the agent heartbeat and return the configuration it must serve
// @Tags         agent
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        request body dto.PollRequest true "Agent credentials"
// @Success      200 {object} dto.PollResponse "Configuration snapshot"
// @Failure      400 {object} wrapper.JSONResult "Missing agentId or agentKey"
// @Failure      401 {object} wrapper.JSONResult "Invalid credentials"
// @Failure      404 {object} wrapper.JSONResult "Agent not found"
// @Failure      503 {object} wrapper.JSONResult "Registry unavailable, retry"
// @Router       /api/agent/poll [post]
// @Security     ApiKeyAuth
func (h *Handler) poll(c *fiber.Ctx) error {
	req := new(dto.PollRequest)
	if err := c.BodyParser(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		res := wrapper.ResponseFailed(fiber.StatusBadRequest, "Invalid request body", nil)
		return c.Status(res.Code).JSON(res)
	}

	resp, err := h.UseCase.Poll(c.UserContext(), req, middleware.ClientIP(c))
	if err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		res := wrapper.ResponseError(err)
		return c.Status(res.Code).JSON(res)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// createAgent godoc
// @Summary      Create a pending agent
// @Description  Create an agent and issue its 24h single-use connection token (admin only)
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateAgentRequest true "Agent details"
// @Success      201 {object} dto.CreateAgentResponse "Agent created"
// @Failure      400 {object} wrapper.JSONResult "Invalid request body"
// @Failure      500 {object} wrapper.JSONResult "Internal server error"
// @Router       /agents [post]
// @Security     BasicAuth
func (h *Handler) createAgent(c *fiber.Ctx) error {
	req := new(dto.CreateAgentRequest)
	if res, ok := parseBody(c, req); !ok {
		return c.Status(res.Code).JSON(res)
	}

	res := h.UseCase.CreateAgent(c.UserContext(), req)
	return c.Status(res.Code).JSON(res)
}

// listAgents godoc
// @Summary      List agents
// @Description  List all registered agents (admin only)
// @Tags         agents
// @Produce      json
// @Success      200 {object} dto.ListAgentsResponse "List of agents"
// @Failure      500 {object} wrapper.JSONResult "Internal server error"
// @Router       /agents [get]
// @Security     BasicAuth
func (h *Handler) listAgents(c *fiber.Ctx) error {
	res := h.UseCase.ListAgents(c.UserContext())
	return c.Status(res.Code).JSON(res)
}

// getAgent godoc
// @Summary      Get agent details
// @Description  Retrieve details for a specific agent (admin only)
// @Tags         agents
// @Produce      json
// @Param        id path string true "Agent ID"
// @Success      200 {object} wrapper.JSONResult "Agent details returned"
// @Failure      404 {object} wrapper.JSONResult "Agent not found"
// @Router       /agents/{id} [get]
// @Security     BasicAuth
func (h *Handler) getAgent(c *fiber.Ctx) error {
	res := h.UseCase.GetAgent(c.UserContext(), c.Params("id"))
	return c.Status(res.Code).JSON(res)
}

// updateAgentInterval godoc
// @Summary      Update agent poll interval
// @Description  Update the polling interval for a specific agent (admin only)
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        id path string true "Agent ID"
// @Param        request body dto.UpdatePollIntervalRequest true "Poll interval update"
// @Success      200 {object} wrapper.JSONResult "Poll interval updated successfully"
// @Failure      400 {object} wrapper.JSONResult "Invalid request body"
// @Failure      404 {object} wrapper.JSONResult "Agent not found"
// @Router       /agents/{id}/interval [put]
// @Security     BasicAuth
func (h *Handler) updateAgentInterval(c *fiber.Ctx) error {
	req := new(dto.UpdatePollIntervalRequest)
	if res, ok := parseBody(c, req); !ok {
		return c.Status(res.Code).JSON(res)
	}

	res := h.UseCase.UpdateAgentPollInterval(c.UserContext(), c.Params("id"), req)
	return c.Status(res.Code).JSON(res)
}

// deleteAgent godoc
// @Summary      Delete agent
// @Description  Delete the specified agent and its connection token (admin only)
// @Tags         agents
// @Produce      json
// @Param        id path string true "Agent ID"
// @Success      200 {object} wrapper.JSONResult "Agent deleted successfully"
// @Failure      404 {object} wrapper.JSONResult "Agent not found"
// @Router       /agents/{id} [delete]
// @Security     BasicAuth
func (h *Handler) deleteAgent(c *fiber.Ctx) error {
	res := h.UseCase.DeleteAgent(c.UserContext(), c.Params("id"))
	return c.Status(res.Code).JSON(res)
}

// createDomain godoc
// @Summary      Create domain
// @Description  Register a domain; without locations it starts with the default GeoDNS set (admin only)
// @Tags         domains
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateDomainRequest true "Domain"
// @Success      201 {object} wrapper.JSONResult "Domain created"
// @Failure      400 {object} wrapper.JSONResult "Invalid request body"
// @Router       /domains [post]
// @Security     BasicAuth
func (h *Handler) createDomain(c *fiber.Ctx) error {
	req := new(dto.CreateDomainRequest)
	if res, ok := parseBody(c, req); !ok {
		return c.Status(res.Code).JSON(res)
	}

	res := h.UseCase.CreateDomain(c.UserContext(), req)
	return c.Status(res.Code).JSON(res)
}

// anycast godoc
// @Summary      Anycast records
// @Description  Resolve every GeoDNS location of a domain to the live agent that should answer it (admin only)
// @Tags         domains
// @Produce      json
// @Param        id path string true "Domain ID"
// @Success      200 {object} dto.AnycastResponse "One record per location"
// @Failure      404 {object} wrapper.JSONResult "Domain not found"
// @Router       /domains/{id}/anycast [get]
// @Security     BasicAuth
func (h *Handler) anycast(c *fiber.Ctx) error {
	res := h.UseCase.Anycast(c.UserContext(), c.Params("id"))
	return c.Status(res.Code).JSON(res)
}

// createProxy godoc
// @Summary      Create L4 proxy rule
// @Description  Register a TCP/UDP forwarding rule, global or bound to one agent (admin only)
// @Tags         proxies
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateProxyRequest true "Proxy rule"
// @Success      201 {object} wrapper.JSONResult "Proxy created"
// @Failure      400 {object} wrapper.JSONResult "Invalid request body"
// @Router       /proxies [post]
// @Security     BasicAuth
func (h *Handler) createProxy(c *fiber.Ctx) error {
	req := new(dto.CreateProxyRequest)
	if res, ok := parseBody(c, req); !ok {
		return c.Status(res.Code).JSON(res)
	}

	res := h.UseCase.CreateProxy(c.UserContext(), req)
	return c.Status(res.Code).JSON(res)
}

// health godoc
// @Summary     Health check
// @Description Get controller health status (unauthenticated)
// @Tags        health
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /health [get]
func (h *Handler) health(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "health_check"))

	return c.JSON(fiber.Map{"status": "healthy"})
}

// parseBody decodes and validates the request body into req.
func parseBody(c *fiber.Ctx, req interface{}) (wrapper.JSONResult, bool) {
	if err := c.BodyParser(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		return wrapper.ResponseFailed(fiber.StatusBadRequest, "Invalid request body", nil), false
	}
	if err := validator.ValidateStruct(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		return wrapper.ResponseFailed(fiber.StatusBadRequest, "Validation failed", validator.TranslateError(err)), false
	}
	return wrapper.JSONResult{}, true
}
