package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Alwanly/service-edge-controller/internal/config"
	"github.com/Alwanly/service-edge-controller/internal/server/agent/dto"
	"github.com/Alwanly/service-edge-controller/internal/server/agent/repository"
	controllerdto "github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/pkg/apperror"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/pubsub"
	"github.com/Alwanly/service-edge-controller/pkg/retry"
)

type UseCase struct {
	controllerClient repository.IControllerClient
	repo             repository.IRepository
	cfg              *config.AgentConfig
	logger           *logger.CanonicalLogger
	retryConfig      retry.Config

	// wake holds at most one pending early-poll request
	wake chan struct{}

	mu     sync.RWMutex
	health dto.HealthResponse
}

func NewUseCase(controllerClient repository.IControllerClient, repo repository.IRepository, cfg *config.AgentConfig, log *logger.CanonicalLogger) *UseCase {
	if log == nil {
		log = logger.NewNop()
	}
	return &UseCase{
		controllerClient: controllerClient,
		repo:             repo,
		cfg:              cfg,
		logger:           log,
		wake:             make(chan struct{}, 1),
		retryConfig: retry.Config{
			MaxRetries:     cfg.ConnectMaxRetries,
			InitialBackoff: cfg.ConnectInitialBackoff,
			MaxBackoff:     cfg.ConnectMaxBackoff,
			Multiplier:     cfg.ConnectBackoffMultiplier,
			Jitter:         true,
		},
		health: dto.HealthResponse{
			Status:                  dto.StateConnecting,
			StartTime:               time.Now(),
			NextPollIntervalSeconds: int(cfg.PollInterval / time.Second),
		},
	}
}

// Connect returns the agent credentials. Configured or saved credentials win;
// otherwise the connection token is redeemed. Transport failures are retried
// with backoff, controller rejections are not since a token is single-use.
func (uc *UseCase) Connect(ctx context.Context) (repository.Credentials, error) {
	if creds, ok := uc.repo.Credentials(); ok {
		return creds, nil
	}

	if uc.cfg.AgentID != "" && uc.cfg.AgentKey != "" {
		creds := repository.Credentials{AgentID: uc.cfg.AgentID, AgentKey: uc.cfg.AgentKey}
		uc.connected(creds)
		return creds, nil
	}

	saved, ok, err := repository.LoadCredentials(uc.cfg.CredentialsFile)
	if err != nil {
		uc.logger.WithError(err).Warn("ignoring saved credentials")
	}
	if ok {
		uc.logger.WithAgentID(saved.AgentID).Info("using saved credentials")
		uc.connected(saved)
		return saved, nil
	}

	if uc.cfg.ConnectToken == "" {
		err := fmt.Errorf("no connection token and no saved credentials: %w", apperror.ErrValidation)
		uc.connectFailed(err)
		return repository.Credentials{}, err
	}

	var resp *controllerdto.ConnectResponse
	op := func(ctx context.Context) error {
		attempt := uc.incrementAttempts()

		r, err := uc.controllerClient.Connect(ctx, uc.cfg.ConnectToken)
		if err != nil {
			uc.logger.Info("connect attempt failed",
				logger.Int("attempt", attempt),
				logger.Int("max_retries", uc.retryConfig.MaxRetries),
				logger.String("error", err.Error()),
			)
			if rejected(err) {
				return retry.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	if err := retry.WithExponentialBackoff(ctx, uc.retryConfig, op); err != nil {
		uc.connectFailed(err)
		return repository.Credentials{}, err
	}

	creds := repository.Credentials{
		AgentID:         resp.Config.AgentID,
		AgentKey:        resp.Config.AgentKey,
		PollingInterval: resp.Config.PollingInterval,
		APIEndpoint:     resp.Config.APIEndpoint,
	}
	if !creds.Valid() {
		err := errors.New("controller returned incomplete credentials")
		uc.connectFailed(err)
		return repository.Credentials{}, err
	}

	if err := repository.SaveCredentials(uc.cfg.CredentialsFile, creds); err != nil {
		uc.logger.WithError(err).Error("failed to save credentials; the token is spent and a restart will need AGENT_ID and AGENT_KEY")
	}

	uc.connected(creds)
	uc.logger.WithAgentID(creds.AgentID).Info("agent connected",
		logger.Int("polling_interval", creds.PollingInterval),
	)
	return creds, nil
}

// PollOnce fetches the agent configuration once. The returned delay is the
// controller's nextPollInterval, or the last known interval on failure.
func (uc *UseCase) PollOnce(ctx context.Context) (time.Duration, error) {
	creds, ok := uc.repo.Credentials()
	if !ok {
		return uc.nextInterval(), fmt.Errorf("agent is not connected: %w", apperror.ErrValidation)
	}

	resp, err := uc.controllerClient.Poll(ctx, creds)
	if err != nil {
		uc.mu.Lock()
		uc.health.ConsecutivePollFailures++
		uc.health.LastError = err.Error()
		uc.mu.Unlock()
		return uc.nextInterval(), err
	}

	uc.repo.UpdateSnapshot(resp)

	now := time.Now()
	stats := resp.Stats
	uc.mu.Lock()
	uc.health.LastPollAt = &now
	uc.health.ConsecutivePollFailures = 0
	uc.health.LastError = ""
	uc.health.Stats = &stats
	if resp.NextPollInterval > 0 {
		uc.health.NextPollIntervalSeconds = resp.NextPollInterval
	}
	uc.mu.Unlock()

	uc.logger.Debug("configuration received",
		logger.Int("domains", resp.Stats.TotalDomains),
		logger.Int("proxies", resp.Stats.TotalProxies),
		logger.Int("next_poll_interval", resp.NextPollInterval),
	)
	return uc.nextInterval(), nil
}

// Run polls immediately and then every nextPollInterval until ctx is canceled.
func (uc *UseCase) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		case <-uc.wake:
			timer.Stop()
		}

		next, err := uc.PollOnce(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, apperror.ErrAuthentication), errors.Is(err, apperror.ErrNotFound):
			uc.logger.WithError(err).Error("controller rejected agent credentials")
		default:
			uc.logger.WithError(err).Warn("poll failed, keeping last configuration")
		}
		timer.Reset(next)
	}
}

// Trigger requests a poll ahead of schedule. Requests made while one is
// already pending are coalesced.
func (uc *UseCase) Trigger() {
	select {
	case uc.wake <- struct{}{}:
	default:
	}
}

// Listen triggers an early poll for every config_changed event addressed to
// this agent or broadcast to all agents. It returns when msgs is closed or
// ctx is canceled.
func (uc *UseCase) Listen(ctx context.Context, msgs <-chan pubsub.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			var event controllerdto.AgentEventNotification
			if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
				uc.logger.WithError(err).Warn("ignoring malformed agent event", logger.String("channel", m.Channel))
				continue
			}
			if event.Event != controllerdto.AgentEventConfigChanged {
				continue
			}
			creds, ok := uc.repo.Credentials()
			if !ok || (event.AgentID != "" && event.AgentID != creds.AgentID) {
				continue
			}
			uc.logger.Debug("configuration change announced, polling early",
				logger.String("correlation_id", event.CorrelationID))
			uc.Trigger()
		}
	}
}

func (uc *UseCase) Health() dto.HealthResponse {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	h := uc.health
	h.Uptime = time.Since(h.StartTime).String()
	return h
}

func (uc *UseCase) Snapshot() (*controllerdto.PollResponse, bool) {
	return uc.repo.Snapshot()
}

func (uc *UseCase) nextInterval() time.Duration {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.health.NextPollIntervalSeconds > 0 {
		return time.Duration(uc.health.NextPollIntervalSeconds) * time.Second
	}
	return uc.cfg.PollInterval
}

func (uc *UseCase) incrementAttempts() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.health.ConnectAttempts++
	return uc.health.ConnectAttempts
}

func (uc *UseCase) connected(creds repository.Credentials) {
	uc.repo.SetCredentials(creds)

	now := time.Now()
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.health.Status = dto.StateConnected
	uc.health.AgentID = creds.AgentID
	uc.health.ConnectedAt = &now
	uc.health.LastError = ""
	if creds.PollingInterval > 0 {
		uc.health.NextPollIntervalSeconds = creds.PollingInterval
	}
}

func (uc *UseCase) connectFailed(err error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.health.Status = dto.StateConnectFailed
	uc.health.LastError = err.Error()
}

// rejected reports whether the controller answered definitively.
func rejected(err error) bool {
	return errors.Is(err, apperror.ErrNotFound) ||
		errors.Is(err, apperror.ErrConflict) ||
		errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrAuthentication)
}
