package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/pkg/apperror"
	"github.com/Alwanly/service-edge-controller/pkg/geoip"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
)

// Connect redeems a single-use connection token. A token is accepted at most
// once even under concurrent redemption; the geolocation of the caller is
// resolved before the registry write so the transaction never waits on it.
func (uc *UseCase) Connect(ctx context.Context, token, sourceIP string) (*dto.ConnectResponse, error) {
	logger.AddToContext(ctx,
		logger.String(logger.FieldOperation, "agent_connect"),
		logger.String(logger.FieldSourceIP, sourceIP))

	resp, err := uc.connect(ctx, token, sourceIP)
	outcome := outcomeOf(err)
	uc.Metrics.Handshakes.WithLabelValues(outcome).Inc()
	logger.AddToContext(ctx, logger.String(logger.FieldOutcome, outcome), logger.Bool(logger.FieldSuccess, err == nil))
	return resp, err
}

func (uc *UseCase) connect(ctx context.Context, token, sourceIP string) (*dto.ConnectResponse, error) {
	if token == "" {
		return nil, fmt.Errorf("connection token is required: %w", apperror.ErrValidation)
	}

	sourceIP = geoip.CleanIP(sourceIP)
	now := uc.Now()

	// cheap rejection before spending a geolocation lookup
	t, err := uc.Repo.GetToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("invalid connection token: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	if t.Consumed() {
		return nil, fmt.Errorf("connection token already used: %w", apperror.ErrConflict)
	}
	if t.Expired(now) {
		return nil, fmt.Errorf("connection token expired: %w", apperror.ErrNotFound)
	}

	geoInfo := uc.GeoIP.Lookup(ctx, sourceIP)

	agent, err := uc.Repo.RedeemToken(ctx, token, now, func(a *models.Agent) {
		a.IsConnected = true
		a.IsActive = true
		a.ConnectedAt = &now
		a.LastSeen = &now
		if sourceIP != "" && sourceIP != a.IPAddress {
			a.RecordIP(sourceIP, geoInfo, now)
		} else {
			a.IPInfo = geoInfo
		}
	})
	if err != nil {
		return nil, err
	}

	logger.AddToContext(ctx, logger.String(logger.FieldAgentID, agent.AgentID))
	uc.publish(ctx, dto.AgentEventNotification{
		AgentID:   agent.AgentID,
		Event:     dto.AgentEventConnected,
		IPAddress: agent.IPAddress,
		At:        now,
	})

	return &dto.ConnectResponse{
		Success: true,
		Message: "Agent connected successfully",
		Config: dto.ConnectConfig{
			AgentID:         agent.AgentID,
			AgentKey:        agent.AgentKey,
			PollingInterval: agent.PollingInterval,
			APIEndpoint:     PollEndpoint,
		},
	}, nil
}

// outcomeOf labels an error for metrics and the request log.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperror.ErrValidation):
		return "validation_error"
	case errors.Is(err, apperror.ErrAuthentication):
		return "auth_error"
	case errors.Is(err, apperror.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
