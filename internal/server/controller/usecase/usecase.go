package usecase

import (
	"context"
	"time"

	"github.com/Alwanly/service-edge-controller/internal/config"
	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/pkg/geo"
	"github.com/Alwanly/service-edge-controller/pkg/geodns"
	"github.com/Alwanly/service-edge-controller/pkg/geoip"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/metrics"
	"github.com/Alwanly/service-edge-controller/pkg/retry"
	"github.com/Alwanly/service-edge-controller/pkg/wrapper"
)

const PollEndpoint = "/api/agent/poll"

// Repository is the registry the usecase reads and writes. It is satisfied by
// repository.Repository.
type Repository interface {
	CreateAgent(ctx context.Context, agent *models.Agent, ttl time.Duration) (*models.ConnectionToken, error)
	GetAgentByID(ctx context.Context, agentID string) (*models.Agent, error)
	GetToken(ctx context.Context, token string) (*models.ConnectionToken, error)
	RedeemToken(ctx context.Context, token string, now time.Time, apply func(*models.Agent)) (*models.Agent, error)
	SaveAgentHeartbeat(ctx context.Context, agent *models.Agent, expected int64) error
	ListAgentsByUser(ctx context.Context, userID string) ([]models.Agent, error)
	ListAgents(ctx context.Context) ([]models.AgentPublic, error)
	UpdateAgentPollInterval(ctx context.Context, agentID string, intervalSeconds int) error
	DeleteAgent(ctx context.Context, agentID string) error
	MarkInactiveAgents(ctx context.Context, now time.Time) ([]string, error)

	ListActiveDomainsByUser(ctx context.Context, userID string) ([]models.Domain, error)
	GetDomain(ctx context.Context, domainID string) (*models.Domain, error)
	CreateDomain(ctx context.Context, domain *models.Domain) error
	ListActiveProxiesForAgent(ctx context.Context, userID, agentID string) ([]models.Proxy, error)
	CreateProxy(ctx context.Context, proxy *models.Proxy) error

	PublishAgentEvent(ctx context.Context, event dto.AgentEventNotification) error
}

type UseCase struct {
	Repo     Repository
	Config   *config.ControllerConfig
	Logger   *logger.CanonicalLogger
	GeoIP    geoip.Resolver
	Resolver *geodns.Resolver
	Metrics  *metrics.Metrics
	// PollRetry bounds the optimistic write retries of a poll
	PollRetry retry.Config
	Now       func() time.Time
}

type UseCaseInterface interface {
	Connect(ctx context.Context, token, sourceIP string) (*dto.ConnectResponse, error)
	Poll(ctx context.Context, req *dto.PollRequest, sourceIP string) (*dto.PollResponse, error)
	Anycast(ctx context.Context, domainID string) wrapper.JSONResult
	CreateAgent(ctx context.Context, req *dto.CreateAgentRequest) wrapper.JSONResult
	ListAgents(ctx context.Context) wrapper.JSONResult
	GetAgent(ctx context.Context, agentID string) wrapper.JSONResult
	UpdateAgentPollInterval(ctx context.Context, agentID string, req *dto.UpdatePollIntervalRequest) wrapper.JSONResult
	DeleteAgent(ctx context.Context, agentID string) wrapper.JSONResult
	CreateDomain(ctx context.Context, req *dto.CreateDomainRequest) wrapper.JSONResult
	CreateProxy(ctx context.Context, req *dto.CreateProxyRequest) wrapper.JSONResult
	SweepInactive(ctx context.Context) error
}

func NewUseCase(uc UseCase) *UseCase {
	if uc.Logger == nil {
		uc.Logger = logger.NewNop()
	}
	if uc.Metrics == nil {
		uc.Metrics = metrics.NewMetrics(nil)
	}
	if uc.Config == nil {
		uc.Config = &config.ControllerConfig{
			DefaultPollInterval:        models.DefaultPollingInterval * time.Second,
			DefaultInactivityThreshold: models.DefaultInactivityThreshold * time.Second,
			TokenTTL:                   models.ConnectionTokenTTL,
		}
	}
	if uc.Resolver == nil {
		uc.Resolver = geodns.NewResolver(geo.Default(), geodns.WithObserver(newDecisionObserver(uc.Logger, uc.Metrics)))
	}
	if uc.PollRetry.MaxRetries == 0 {
		uc.PollRetry = retry.Config{
			MaxRetries:     3,
			InitialBackoff: 10 * time.Millisecond,
			MaxBackoff:     100 * time.Millisecond,
			Multiplier:     2.0,
			Jitter:         true,
		}
	}
	if uc.Now == nil {
		uc.Now = func() time.Time { return time.Now().UTC() }
	}
	return &uc
}

// publish never fails the caller; events are best effort.
func (uc *UseCase) publish(ctx context.Context, event dto.AgentEventNotification) {
	event.CorrelationID = logger.GetCorrelationID(ctx)
	if err := uc.Repo.PublishAgentEvent(ctx, event); err != nil {
		uc.Logger.WithError(err).Warn("failed to publish agent event",
			logger.String(logger.FieldAgentID, event.AgentID),
			logger.String("event", event.Event))
	}
}
