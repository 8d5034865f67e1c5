package dto

import "time"

// AgentEventsChannel is the Redis channel agent events are published on
const AgentEventsChannel = "agent-events"

const (
	AgentEventConnected     = "connected"
	AgentEventIPChanged     = "ip_changed"
	AgentEventInactive      = "inactive"
	// AgentEventConfigChanged asks agents to poll ahead of schedule. An empty
	// AgentID addresses every agent of UserID.
	AgentEventConfigChanged = "config_changed"
)

// AgentEventNotification represents a message published to Redis when an agent changes state
type AgentEventNotification struct {
	AgentID       string    `json:"agentId,omitempty"`
	UserID        string    `json:"userId,omitempty"`
	Event         string    `json:"event"`
	IPAddress     string    `json:"ipAddress,omitempty"`
	CorrelationID string    `json:"correlationId,omitempty"`
	At            time.Time `json:"at"`
}
