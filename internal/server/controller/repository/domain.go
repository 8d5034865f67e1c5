package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/pkg/apperror"
)

// ListActiveDomainsByUser returns the owner's active domains, normalized.
func (r *Repository) ListActiveDomainsByUser(ctx context.Context, userID string) ([]models.Domain, error) {
	var domains []models.Domain
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").Order("id ASC").
		Find(&domains).Error; err != nil {
		return nil, wrapDBError("failed to list domains", err)
	}
	for i := range domains {
		domains[i].Normalize()
	}
	return domains, nil
}

func (r *Repository) GetDomain(ctx context.Context, domainID string) (*models.Domain, error) {
	var domain models.Domain
	if err := r.DB.WithContext(ctx).Where("id = ?", domainID).First(&domain).Error; err != nil {
		return nil, wrapDBError("failed to get domain", err)
	}
	domain.Normalize()
	return &domain, nil
}

// CreateDomain stores a domain. A domain without locations starts with the
// default location set.
func (r *Repository) CreateDomain(ctx context.Context, domain *models.Domain) error {
	if domain.ID == "" {
		domain.ID = uuid.Must(uuid.NewV7()).String()
	}
	if len(domain.GeoDNSConfig) == 0 {
		domain.GeoDNSConfig = models.DefaultLocations()
	}
	for i := range domain.DNSRecords {
		if domain.DNSRecords[i].ID == "" {
			domain.DNSRecords[i].ID = uuid.Must(uuid.NewV7()).String()
		}
	}
	domain.Normalize()
	if err := domain.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrValidation, err)
	}

	if err := r.DB.WithContext(ctx).Create(domain).Error; err != nil {
		return wrapDBError("failed to create domain", err)
	}
	return nil
}

// ListActiveProxiesForAgent returns the owner's active rules that are global
// or bound to agentID.
func (r *Repository) ListActiveProxiesForAgent(ctx context.Context, userID, agentID string) ([]models.Proxy, error) {
	var proxies []models.Proxy
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("agent_id IS NULL OR agent_id = ?", agentID).
		Order("created_at ASC").Order("id ASC").
		Find(&proxies).Error; err != nil {
		return nil, wrapDBError("failed to list proxies", err)
	}
	return proxies, nil
}

func (r *Repository) CreateProxy(ctx context.Context, proxy *models.Proxy) error {
	if proxy.ID == "" {
		proxy.ID = uuid.Must(uuid.NewV7()).String()
	}
	if err := r.DB.WithContext(ctx).Create(proxy).Error; err != nil {
		return wrapDBError("failed to create proxy", err)
	}
	return nil
}
