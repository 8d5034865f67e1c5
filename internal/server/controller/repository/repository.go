package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/pkg/apperror"
	"github.com/Alwanly/service-edge-controller/pkg/pubsub"
)

// ErrVersionConflict is returned when an agent row changed between read and write.
var ErrVersionConflict = errors.New("agent was modified concurrently")

type Repository struct {
	DB  *gorm.DB
	Pub pubsub.Publisher
}

func NewRepository(db *gorm.DB, publisher pubsub.Publisher) *Repository {
	return &Repository{DB: db, Pub: publisher}
}

// wrapDBError maps gorm errors onto the apperror taxonomy.
func wrapDBError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, apperror.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, apperror.ErrPersistence, err)
}

// CreateAgent creates a pending agent together with its connection token.
func (r *Repository) CreateAgent(ctx context.Context, agent *models.Agent, ttl time.Duration) (*models.ConnectionToken, error) {
	if agent.AgentID == "" {
		agent.AgentID = uuid.Must(uuid.NewV7()).String()
	}
	if agent.AgentKey == "" {
		key, err := generateSecureToken(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate agent key: %w", err)
		}
		agent.AgentKey = key
	}
	tokenValue, err := generateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate connection token: %w", err)
	}

	token := &models.ConnectionToken{
		Token:     tokenValue,
		AgentID:   agent.AgentID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(agent).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, wrapDBError("failed to create agent", err)
	}
	return token, nil
}

// GetAgentByID retrieves an agent by its public id
func (r *Repository) GetAgentByID(ctx context.Context, agentID string) (*models.Agent, error) {
	var agent models.Agent
	if err := r.DB.WithContext(ctx).Where("agent_id = ?", agentID).First(&agent).Error; err != nil {
		return nil, wrapDBError("failed to get agent", err)
	}
	return &agent, nil
}

// GetToken retrieves a connection token, consumed or not.
func (r *Repository) GetToken(ctx context.Context, token string) (*models.ConnectionToken, error) {
	var t models.ConnectionToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, wrapDBError("failed to get connection token", err)
	}
	return &t, nil
}

// RedeemToken consumes token and connects its agent in one transaction. The
// conditional update on consumed_at is the test-and-clear: of two concurrent
// callers exactly one sees a row affected. apply mutates the agent before it is
// written; the agent write is guarded on is_connected so a pending agent is
// connected at most once.
func (r *Repository) RedeemToken(ctx context.Context, token string, now time.Time, apply func(*models.Agent)) (*models.Agent, error) {
	var agent models.Agent

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.ConnectionToken
		if err := tx.Where("token = ?", token).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invalid connection token: %w", apperror.ErrNotFound)
			}
			return wrapDBError("failed to get connection token", err)
		}
		if t.Consumed() {
			return fmt.Errorf("connection token already used: %w", apperror.ErrConflict)
		}
		if t.Expired(now) {
			return fmt.Errorf("connection token expired: %w", apperror.ErrNotFound)
		}

		res := tx.Model(&models.ConnectionToken{}).
			Where("token = ? AND consumed_at IS NULL", token).
			Update("consumed_at", now)
		if res.Error != nil {
			return wrapDBError("failed to consume token", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("connection token already used: %w", apperror.ErrConflict)
		}

		if err := tx.Where("agent_id = ?", t.AgentID).First(&agent).Error; err != nil {
			return wrapDBError("failed to load token agent", err)
		}
		if agent.IsConnected {
			return fmt.Errorf("agent already connected: %w", apperror.ErrConflict)
		}

		expected := agent.Version
		apply(&agent)
		agent.Version = expected + 1

		upd := tx.Model(&agent).
			Where("is_connected = ? AND version = ?", false, expected).
			Select("is_connected", "is_active", "connected_at", "last_seen", "ip_address", "ip_info", "ip_history", "version").
			Updates(&agent)
		if upd.Error != nil {
			return wrapDBError("failed to connect agent", upd.Error)
		}
		if upd.RowsAffected == 0 {
			return fmt.Errorf("agent already connected: %w", apperror.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// SaveAgentHeartbeat writes the poll-owned fields of agent if its row still has
// the expected version. All fields land in one statement.
func (r *Repository) SaveAgentHeartbeat(ctx context.Context, agent *models.Agent, expected int64) error {
	agent.Version = expected + 1
	res := r.DB.WithContext(ctx).Model(agent).
		Where("version = ?", expected).
		Select("last_seen", "is_active", "ip_address", "ip_info", "ip_history", "version").
		Updates(agent)
	if res.Error != nil {
		agent.Version = expected
		return wrapDBError("failed to save agent heartbeat", res.Error)
	}
	if res.RowsAffected == 0 {
		agent.Version = expected
		return ErrVersionConflict
	}
	return nil
}

// ListAgentsByUser returns the owner's agents in a stable order (oldest first).
func (r *Repository) ListAgentsByUser(ctx context.Context, userID string) ([]models.Agent, error) {
	var agents []models.Agent
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("agent_id ASC").
		Find(&agents).Error; err != nil {
		return nil, wrapDBError("failed to list agents", err)
	}
	return agents, nil
}

// ListAgents retrieves all registered agents
func (r *Repository) ListAgents(ctx context.Context) ([]models.AgentPublic, error) {
	var agents []models.Agent
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&agents).Error; err != nil {
		return nil, wrapDBError("failed to list agents", err)
	}

	public := make([]models.AgentPublic, len(agents))
	for i := range agents {
		public[i] = agents[i].ToPublic()
	}
	return public, nil
}

// UpdateAgentPollInterval updates the polling interval for an agent
func (r *Repository) UpdateAgentPollInterval(ctx context.Context, agentID string, intervalSeconds int) error {
	result := r.DB.WithContext(ctx).Model(&models.Agent{}).
		Where("agent_id = ?", agentID).
		Updates(map[string]interface{}{
			"polling_interval": intervalSeconds,
			"version":          gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return wrapDBError("failed to update poll interval", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("agent %s: %w", agentID, apperror.ErrNotFound)
	}
	return nil
}

// DeleteAgent removes an agent and its connection token
func (r *Repository) DeleteAgent(ctx context.Context, agentID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Agent{}, "agent_id = ?", agentID)
		if result.Error != nil {
			return wrapDBError("failed to delete agent", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("agent %s: %w", agentID, apperror.ErrNotFound)
		}
		if err := tx.Delete(&models.ConnectionToken{}, "agent_id = ?", agentID).Error; err != nil {
			return wrapDBError("failed to delete connection token", err)
		}
		return nil
	})
}

// MarkInactiveAgents downgrades connected agents whose last poll is older than
// their inactivity threshold and returns their ids. Rows touched by a concurrent
// poll are skipped.
func (r *Repository) MarkInactiveAgents(ctx context.Context, now time.Time) ([]string, error) {
	var agents []models.Agent
	if err := r.DB.WithContext(ctx).
		Where("is_connected = ? AND is_active = ?", true, true).
		Find(&agents).Error; err != nil {
		return nil, wrapDBError("failed to list active agents", err)
	}

	var marked []string
	for _, a := range agents {
		if a.LastSeen != nil && now.Sub(*a.LastSeen) < time.Duration(a.InactivityThreshold)*time.Second {
			continue
		}
		res := r.DB.WithContext(ctx).Model(&models.Agent{}).
			Where("agent_id = ? AND version = ?", a.AgentID, a.Version).
			Updates(map[string]interface{}{
				"is_active": false,
				"version":   a.Version + 1,
			})
		if res.Error != nil {
			return marked, wrapDBError("failed to mark agent inactive", res.Error)
		}
		if res.RowsAffected > 0 {
			marked = append(marked, a.AgentID)
		}
	}
	return marked, nil
}

// generateSecureToken creates a cryptographically secure random token
func generateSecureToken(byteLength int) (string, error) {
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
