package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/pkg/apperror"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/wrapper"
)

// CreateAgent registers a pending agent and issues its connection token.
func (uc *UseCase) CreateAgent(ctx context.Context, req *dto.CreateAgentRequest) wrapper.JSONResult {
	logger.AddToContext(ctx, logger.String(logger.FieldOperation, "create_agent"))

	agent := &models.Agent{
		Name:                req.Name,
		UserID:              req.UserID,
		PollingInterval:     int(uc.Config.DefaultPollInterval / time.Second),
		InactivityThreshold: int(uc.Config.DefaultInactivityThreshold / time.Second),
		IPInfo:              models.UnknownGeo(),
	}
	if req.PollingIntervalSeconds != nil {
		agent.PollingInterval = *req.PollingIntervalSeconds
	}
	if req.InactivityThresholdSeconds != nil {
		agent.InactivityThreshold = *req.InactivityThresholdSeconds
	}

	token, err := uc.Repo.CreateAgent(ctx, agent, uc.Config.TokenTTL)
	if err != nil {
		logger.AddToContext(ctx, logger.Error(err))
		return wrapper.ResponseError(err)
	}
	logger.AddToContext(ctx, logger.String(logger.FieldAgentID, agent.AgentID))

	return wrapper.ResponseSuccess(http.StatusCreated, dto.CreateAgentResponse{
		AgentID:         agent.AgentID,
		ConnectionToken: token.Token,
		ConnectURL:      fmt.Sprintf("%s/api/agent/connect/%s", uc.Config.PublicURL, token.Token),
		ExpiresAt:       token.ExpiresAt.Format(time.RFC3339),
	})
}

// ListAgents returns all registered agents
func (uc *UseCase) ListAgents(ctx context.Context) wrapper.JSONResult {
	agents, err := uc.Repo.ListAgents(ctx)
	if err != nil {
		logger.AddToContext(ctx, logger.Error(err))
		return wrapper.ResponseError(err)
	}
	return wrapper.ResponseSuccess(http.StatusOK, dto.ListAgentsResponse{
		Agents: agents,
		Total:  len(agents),
	})
}

func (uc *UseCase) GetAgent(ctx context.Context, agentID string) wrapper.JSONResult {
	logger.AddToContext(ctx, logger.String(logger.FieldAgentID, agentID))

	agent, err := uc.Repo.GetAgentByID(ctx, agentID)
	if err != nil {
		logger.AddToContext(ctx, logger.Error(err))
		return wrapper.ResponseError(err)
	}
	return wrapper.ResponseSuccess(http.StatusOK, agent.ToPublic())
}

func (uc *UseCase) UpdateAgentPollInterval(ctx context.Context, agentID string, req *dto.UpdatePollIntervalRequest) wrapper.JSONResult {
	logger.AddToContext(ctx, logger.String(logger.FieldAgentID, agentID))

	if req.PollIntervalSeconds == nil {
		return wrapper.ResponseError(fmt.Errorf("poll_interval_seconds is required: %w", apperror.ErrValidation))
	}
	if err := uc.Repo.UpdateAgentPollInterval(ctx, agentID, *req.PollIntervalSeconds); err != nil {
		logger.AddToContext(ctx, logger.Error(err))
		return wrapper.ResponseError(err)
	}
	uc.publish(ctx, dto.AgentEventNotification{
		AgentID: agentID,
		Event:   dto.AgentEventConfigChanged,
		At:      uc.Now(),
	})
	return wrapper.ResponseSuccess(http.StatusOK, "poll interval updated")
}

func (uc *UseCase) DeleteAgent(ctx context.Context, agentID string) wrapper.JSONResult {
	logger.AddToContext(ctx, logger.String(logger.FieldAgentID, agentID))

	if err := uc.Repo.DeleteAgent(ctx, agentID); err != nil {
		logger.AddToContext(ctx, logger.Error(err))
		return wrapper.ResponseError(err)
	}
	return wrapper.ResponseSuccess(http.StatusOK, "agent deleted")
}

func (uc *UseCase) CreateDomain(ctx context.Context, req *dto.CreateDomainRequest) wrapper.JSONResult {
	logger.AddToContext(ctx, logger.String(logger.FieldOperation, "create_domain"))

	domain := &models.Domain{
		UserID:       req.UserID,
		Domain:       req.Domain,
		Description:  req.Description,
		IsActive:     true,
		DNSRecords:   req.DNSRecords,
		GeoDNSConfig: req.GeoDNSConfig,
		HTTPProxy:    req.HTTPProxy,
	}
	if err := uc.Repo.CreateDomain(ctx, domain); err != nil {
		logger.AddToContext(ctx, logger.Error(err))
		return wrapper.ResponseError(err)
	}
	logger.AddToContext(ctx, logger.String(logger.FieldDomainID, domain.ID))
	uc.publish(ctx, dto.AgentEventNotification{
		UserID: domain.UserID,
		Event:  dto.AgentEventConfigChanged,
		At:     uc.Now(),
	})
	return wrapper.ResponseSuccess(http.StatusCreated, domain)
}

func (uc *UseCase) CreateProxy(ctx context.Context, req *dto.CreateProxyRequest) wrapper.JSONResult {
	logger.AddToContext(ctx, logger.String(logger.FieldOperation, "create_proxy"))

	proxy := &models.Proxy{
		UserID:          req.UserID,
		Name:            req.Name,
		Type:            req.Type,
		SourcePort:      req.SourcePort,
		DestinationHost: req.DestinationHost,
		DestinationPort: req.DestinationPort,
		AgentID:         req.AgentID,
		IsActive:        true,
	}
	if err := uc.Repo.CreateProxy(ctx, proxy); err != nil {
		logger.AddToContext(ctx, logger.Error(err))
		return wrapper.ResponseError(err)
	}
	event := dto.AgentEventNotification{
		UserID: proxy.UserID,
		Event:  dto.AgentEventConfigChanged,
		At:     uc.Now(),
	}
	if proxy.AgentID != nil {
		event.AgentID = *proxy.AgentID
	}
	uc.publish(ctx, event)
	return wrapper.ResponseSuccess(http.StatusCreated, proxy)
}

// SweepInactive marks agents whose last poll is older than their threshold.
func (uc *UseCase) SweepInactive(ctx context.Context) error {
	now := uc.Now()
	marked, err := uc.Repo.MarkInactiveAgents(ctx, now)
	if err != nil {
		return err
	}
	logger.AddToContext(ctx, logger.Int("marked_inactive", len(marked)))
	if len(marked) == 0 {
		return nil
	}

	uc.Metrics.AgentsMarkedInactive.Add(float64(len(marked)))
	uc.Logger.Info("agents marked inactive", logger.Int("count", len(marked)))
	for _, id := range marked {
		uc.publish(ctx, dto.AgentEventNotification{
			AgentID: id,
			Event:   dto.AgentEventInactive,
			At:      now,
		})
	}
	return nil
}
