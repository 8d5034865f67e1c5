package models

import "time"

const (
	MaxIPHistory               = 10
	DefaultPollingInterval     = 60
	DefaultInactivityThreshold = 180
)

// IPHistoryEntry records an address the agent used before its current one.
type IPHistoryEntry struct {
	IP        string    `json:"ip"`
	ChangedAt time.Time `json:"changedAt"`
	IPInfo    GeoInfo   `json:"ipInfo"`
}

type Agent struct {
	AgentID             string           `gorm:"primaryKey;column:agent_id"`
	AgentKey            string           `gorm:"column:agent_key;not null"`
	UserID              string           `gorm:"column:user_id;index;not null"`
	Name                string           `gorm:"column:name"`
	IsConnected         bool             `gorm:"column:is_connected"`
	IsActive            bool             `gorm:"column:is_active;index"`
	PollingInterval     int              `gorm:"column:polling_interval"`
	InactivityThreshold int              `gorm:"column:inactivity_threshold"`
	IPAddress           string           `gorm:"column:ip_address"`
	IPInfo              GeoInfo          `gorm:"column:ip_info;serializer:json"`
	IPHistory           []IPHistoryEntry `gorm:"column:ip_history;serializer:json"`
	ConnectedAt         *time.Time       `gorm:"column:connected_at"`
	LastSeen            *time.Time       `gorm:"column:last_seen"`
	Version             int64            `gorm:"column:version;not null;default:0"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Agent) TableName() string {
	return "agents"
}

// RecordIP moves the current address into the history and installs ip/info as
// current. The history keeps the newest MaxIPHistory entries in order.
func (a *Agent) RecordIP(ip string, info GeoInfo, now time.Time) {
	if a.IPAddress != "" {
		a.IPHistory = append(a.IPHistory, IPHistoryEntry{
			IP:        a.IPAddress,
			ChangedAt: now,
			IPInfo:    a.IPInfo,
		})
		if n := len(a.IPHistory); n > MaxIPHistory {
			a.IPHistory = append([]IPHistoryEntry(nil), a.IPHistory[n-MaxIPHistory:]...)
		}
	}
	a.IPAddress = ip
	a.IPInfo = info
}

// Eligible reports whether the agent may answer GeoDNS traffic.
func (a *Agent) Eligible() bool {
	return a.IsActive && a.IPAddress != ""
}

// AgentPublic is the operator view of an agent; it never carries the key.
type AgentPublic struct {
	AgentID             string           `json:"agentId"`
	Name                string           `json:"name"`
	UserID              string           `json:"userId"`
	IsConnected         bool             `json:"isConnected"`
	IsActive            bool             `json:"isActive"`
	PollingInterval     int              `json:"pollingInterval"`
	InactivityThreshold int              `json:"inactivityThreshold"`
	IPAddress           string           `json:"ipAddress,omitempty"`
	IPInfo              GeoInfo          `json:"ipInfo"`
	IPHistory           []IPHistoryEntry `json:"ipHistory"`
	ConnectedAt         *time.Time       `json:"connectedAt,omitempty"`
	LastSeen            *time.Time       `json:"lastSeen,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
}

func (a *Agent) ToPublic() AgentPublic {
	history := a.IPHistory
	if history == nil {
		history = []IPHistoryEntry{}
	}
	return AgentPublic{
		AgentID:             a.AgentID,
		Name:                a.Name,
		UserID:              a.UserID,
		IsConnected:         a.IsConnected,
		IsActive:            a.IsActive,
		PollingInterval:     a.PollingInterval,
		InactivityThreshold: a.InactivityThreshold,
		IPAddress:           a.IPAddress,
		IPInfo:              a.IPInfo,
		IPHistory:           history,
		ConnectedAt:         a.ConnectedAt,
		LastSeen:            a.LastSeen,
		CreatedAt:           a.CreatedAt,
	}
}
