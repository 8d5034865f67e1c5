package models

import "time"

const ConnectionTokenTTL = 24 * time.Hour

// ConnectionToken bootstraps exactly one pending agent. Consumed rows are kept so
// a replay can be told apart from an unknown token.
type ConnectionToken struct {
	Token      string     `gorm:"primaryKey;column:token"`
	AgentID    string     `gorm:"column:agent_id;uniqueIndex;not null"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	ConsumedAt *time.Time `gorm:"column:consumed_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (ConnectionToken) TableName() string {
	return "connection_tokens"
}

func (t *ConnectionToken) Consumed() bool {
	return t.ConsumedAt != nil
}

func (t *ConnectionToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
