package repository

import (
	"context"

	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
)

// IControllerClient defines the interface for communicating with the controller service
type IControllerClient interface {
	// Connect redeems a single-use connection token
	Connect(ctx context.Context, token string) (*dto.ConnectResponse, error)
	// Poll fetches the configuration assigned to the agent
	Poll(ctx context.Context, creds Credentials) (*dto.PollResponse, error)
}

// IRepository holds the agent's runtime state
type IRepository interface {
	SetCredentials(creds Credentials)
	Credentials() (Credentials, bool)
	UpdateSnapshot(resp *dto.PollResponse)
	Snapshot() (*dto.PollResponse, bool)
}
