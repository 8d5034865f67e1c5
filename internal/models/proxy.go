package models

import "time"

const (
	ProxyTCP = "tcp"
	ProxyUDP = "udp"
)

// Proxy is an L4 forwarding rule. A nil AgentID makes it global.
type Proxy struct {
	ID              string    `gorm:"primaryKey;column:id" json:"id"`
	UserID          string    `gorm:"column:user_id;index;not null" json:"userId"`
	Name            string    `gorm:"column:name" json:"name"`
	Type            string    `gorm:"column:type" json:"type"`
	SourcePort      int       `gorm:"column:source_port" json:"sourcePort"`
	DestinationHost string    `gorm:"column:destination_host" json:"destinationHost"`
	DestinationPort int       `gorm:"column:destination_port" json:"destinationPort"`
	AgentID         *string   `gorm:"column:agent_id;index" json:"agentId,omitempty"`
	IsActive        bool      `gorm:"column:is_active" json:"isActive"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Proxy) TableName() string {
	return "proxies"
}

// ServedBy reports whether the rule applies to the given agent.
func (p *Proxy) ServedBy(agentID string) bool {
	return p.AgentID == nil || *p.AgentID == agentID
}
