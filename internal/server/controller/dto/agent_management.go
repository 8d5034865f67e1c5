package dto

import "github.com/Alwanly/service-edge-controller/internal/models"

// CreateAgentRequest creates a pending agent owned by UserID
type CreateAgentRequest struct {
	Name                       string `json:"name" validate:"required" example:"edge-fra-01"`
	UserID                     string `json:"userId" validate:"required" example:"user-1"`
	PollingIntervalSeconds     *int   `json:"pollingInterval,omitempty" validate:"omitempty,min=5,max=86400" example:"60"`
	InactivityThresholdSeconds *int   `json:"inactivityThreshold,omitempty" validate:"omitempty,min=10" example:"180"`
}

// CreateAgentResponse returns the one-time connection token
type CreateAgentResponse struct {
	AgentID         string `json:"agentId"`
	ConnectionToken string `json:"connectionToken"`
	ConnectURL      string `json:"connectUrl"`
	ExpiresAt       string `json:"expiresAt"`
}

// UpdatePollIntervalRequest updates an agent's polling interval
type UpdatePollIntervalRequest struct {
	PollIntervalSeconds *int `json:"poll_interval_seconds" validate:"required,min=5,max=86400"`
}

// ListAgentsResponse returns all registered agents
type ListAgentsResponse struct {
	Agents []models.AgentPublic `json:"agents"`
	Total  int                  `json:"total"`
}
