package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
)

// PublishAgentEvent publishes an agent lifecycle notification to Redis (if configured)
func (r *Repository) PublishAgentEvent(ctx context.Context, event dto.AgentEventNotification) error {
	if r.Pub == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal agent event: %w", err)
	}

	if err := r.Pub.Publish(ctx, dto.AgentEventsChannel, string(payload)); err != nil {
		return fmt.Errorf("failed to publish agent event: %w", err)
	}
	return nil
}
