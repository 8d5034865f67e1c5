package dto

import (
	"time"

	controllerdto "github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
)

type ConnectionState string

const (
	StateConnecting    ConnectionState = "connecting"
	StateConnected     ConnectionState = "connected"
	StateConnectFailed ConnectionState = "connect_failed"
)

type HealthResponse struct {
	Status                  ConnectionState          `json:"status"`
	AgentID                 string                   `json:"agent_id,omitempty"`
	StartTime               time.Time                `json:"start_time"`
	ConnectedAt             *time.Time               `json:"connected_at,omitempty"`
	LastPollAt              *time.Time               `json:"last_poll_at,omitempty"`
	Uptime                  string                   `json:"uptime"`
	LastError               string                   `json:"last_error,omitempty"`
	ConnectAttempts         int                      `json:"connect_attempts"`
	ConsecutivePollFailures int                      `json:"consecutive_poll_failures"`
	NextPollIntervalSeconds int                      `json:"next_poll_interval_seconds"`
	Stats                   *controllerdto.PollStats `json:"stats,omitempty"`
}
