package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/repository"
	"github.com/Alwanly/service-edge-controller/pkg/apperror"
)

// fakeRepo is an in-memory registry with the same atomicity as the gorm one.
type fakeRepo struct {
	mu      sync.Mutex
	agents  map[string]models.Agent
	tokens  map[string]models.ConnectionToken
	domains []models.Domain
	proxies []models.Proxy
	events  []dto.AgentEventNotification

	// heartbeatConflicts forces that many version conflicts before a save succeeds
	heartbeatConflicts int
	heartbeatCalls     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		agents: make(map[string]models.Agent),
		tokens: make(map[string]models.ConnectionToken),
	}
}

func cloneAgent(a models.Agent) models.Agent {
	a.IPHistory = slices.Clone(a.IPHistory)
	return a
}

func (f *fakeRepo) put(a models.Agent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents[a.AgentID] = cloneAgent(a)
}

func (f *fakeRepo) agent(id string) models.Agent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneAgent(f.agents[id])
}

func (f *fakeRepo) CreateAgent(_ context.Context, agent *models.Agent, ttl time.Duration) (*models.ConnectionToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if agent.AgentID == "" {
		agent.AgentID = fmt.Sprintf("agent-%d", len(f.agents)+1)
	}
	agent.AgentKey = "key-" + agent.AgentID
	f.agents[agent.AgentID] = cloneAgent(*agent)
	t := models.ConnectionToken{Token: "tok-" + agent.AgentID, AgentID: agent.AgentID, ExpiresAt: time.Now().UTC().Add(ttl)}
	f.tokens[t.Token] = t
	return &t, nil
}

func (f *fakeRepo) GetAgentByID(_ context.Context, agentID string) (*models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", agentID, apperror.ErrNotFound)
	}
	a = cloneAgent(a)
	return &a, nil
}

func (f *fakeRepo) GetToken(_ context.Context, token string) (*models.ConnectionToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, fmt.Errorf("token: %w", apperror.ErrNotFound)
	}
	return &t, nil
}

func (f *fakeRepo) RedeemToken(_ context.Context, token string, now time.Time, apply func(*models.Agent)) (*models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || t.Expired(now) {
		return nil, fmt.Errorf("token: %w", apperror.ErrNotFound)
	}
	if t.Consumed() {
		return nil, fmt.Errorf("token: %w", apperror.ErrConflict)
	}
	a := cloneAgent(f.agents[t.AgentID])
	if a.IsConnected {
		return nil, fmt.Errorf("agent: %w", apperror.ErrConflict)
	}
	apply(&a)
	a.Version++
	t.ConsumedAt = &now
	f.tokens[token] = t
	f.agents[a.AgentID] = cloneAgent(a)
	return &a, nil
}

func (f *fakeRepo) SaveAgentHeartbeat(_ context.Context, agent *models.Agent, expected int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeatCalls++
	if f.heartbeatConflicts > 0 {
		f.heartbeatConflicts--
		return repository.ErrVersionConflict
	}
	if f.agents[agent.AgentID].Version != expected {
		return repository.ErrVersionConflict
	}
	agent.Version = expected + 1
	f.agents[agent.AgentID] = cloneAgent(*agent)
	return nil
}

func (f *fakeRepo) ListAgentsByUser(_ context.Context, userID string) ([]models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Agent
	for _, a := range f.agents {
		if a.UserID == userID {
			out = append(out, cloneAgent(a))
		}
	}
	slices.SortFunc(out, func(a, b models.Agent) int {
		if a.AgentID < b.AgentID {
			return -1
		}
		if a.AgentID > b.AgentID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (f *fakeRepo) ListAgents(ctx context.Context) ([]models.AgentPublic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AgentPublic, 0, len(f.agents))
	for _, a := range f.agents {
		out = append(out, a.ToPublic())
	}
	return out, nil
}

func (f *fakeRepo) UpdateAgentPollInterval(_ context.Context, agentID string, intervalSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.agents[agentID]
	if !ok {
		return fmt.Errorf("agent: %w", apperror.ErrNotFound)
	}
	a.PollingInterval = intervalSeconds
	a.Version++
	f.agents[agentID] = a
	return nil
}

func (f *fakeRepo) DeleteAgent(_ context.Context, agentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.agents[agentID]; !ok {
		return fmt.Errorf("agent: %w", apperror.ErrNotFound)
	}
	delete(f.agents, agentID)
	return nil
}

func (f *fakeRepo) MarkInactiveAgents(_ context.Context, now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var marked []string
	for id, a := range f.agents {
		if !a.IsConnected || !a.IsActive {
			continue
		}
		if a.LastSeen != nil && now.Sub(*a.LastSeen) < time.Duration(a.InactivityThreshold)*time.Second {
			continue
		}
		a.IsActive = false
		a.Version++
		f.agents[id] = a
		marked = append(marked, id)
	}
	return marked, nil
}

func (f *fakeRepo) ListActiveDomainsByUser(_ context.Context, userID string) ([]models.Domain, error) {
	var out []models.Domain
	for _, d := range f.domains {
		if d.UserID == userID && d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetDomain(_ context.Context, domainID string) (*models.Domain, error) {
	for _, d := range f.domains {
		if d.ID == domainID {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("domain: %w", apperror.ErrNotFound)
}

func (f *fakeRepo) CreateDomain(_ context.Context, domain *models.Domain) error {
	if domain.ID == "" {
		domain.ID = fmt.Sprintf("domain-%d", len(f.domains)+1)
	}
	if len(domain.GeoDNSConfig) == 0 {
		domain.GeoDNSConfig = models.DefaultLocations()
	}
	f.domains = append(f.domains, *domain)
	return nil
}

func (f *fakeRepo) ListActiveProxiesForAgent(_ context.Context, userID, agentID string) ([]models.Proxy, error) {
	var out []models.Proxy
	for _, p := range f.proxies {
		if p.UserID == userID && p.IsActive && p.ServedBy(agentID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateProxy(_ context.Context, proxy *models.Proxy) error {
	f.proxies = append(f.proxies, *proxy)
	return nil
}

func (f *fakeRepo) PublishAgentEvent(_ context.Context, event dto.AgentEventNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

// fakeGeo answers from a fixed table and counts lookups.
type fakeGeo struct {
	mu      sync.Mutex
	table   map[string]models.GeoInfo
	lookups int
}

func (g *fakeGeo) Lookup(_ context.Context, ip string) models.GeoInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups++
	if info, ok := g.table[ip]; ok {
		return info
	}
	return models.UnknownGeo()
}

func (g *fakeGeo) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lookups
}

func geoIn(country, code string) models.GeoInfo {
	g := models.UnknownGeo()
	g.Country = country
	g.CountryCode = code
	return g
}
