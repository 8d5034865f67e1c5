package usecase

import (
	"context"
	"time"

	"github.com/Alwanly/service-edge-controller/internal/server/agent/dto"
	"github.com/Alwanly/service-edge-controller/internal/server/agent/repository"
	controllerdto "github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/pkg/pubsub"
)

// IUseCase defines the business logic interface for the agent service
type IUseCase interface {
	// Connect resolves credentials, redeeming the connection token if needed
	Connect(ctx context.Context) (repository.Credentials, error)
	// PollOnce fetches the configuration once and returns the delay until the next poll
	PollOnce(ctx context.Context) (time.Duration, error)
	// Run polls until ctx is canceled
	Run(ctx context.Context) error
	// Trigger requests a poll ahead of schedule
	Trigger()
	// Listen turns controller change events into early polls
	Listen(ctx context.Context, msgs <-chan pubsub.Message)
	// Health returns the agent status information
	Health() dto.HealthResponse
	// Snapshot returns the last configuration received
	Snapshot() (*controllerdto.PollResponse, bool)
}
