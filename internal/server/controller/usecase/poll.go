package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/repository"
	"github.com/Alwanly/service-edge-controller/pkg/apperror"
	authentication "github.com/Alwanly/service-edge-controller/pkg/auth"
	"github.com/Alwanly/service-edge-controller/pkg/geodns"
	"github.com/Alwanly/service-edge-controller/pkg/geoip"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/retry"
	"github.com/Alwanly/service-edge-controller/pkg/validator"
)

// Poll authenticates the agent, records its heartbeat and address, then returns
// the configuration snapshot it must serve. A wrong key or unknown agent leaves
// the registry untouched.
func (uc *UseCase) Poll(ctx context.Context, req *dto.PollRequest, sourceIP string) (*dto.PollResponse, error) {
	start := time.Now()
	logger.AddToContext(ctx,
		logger.String(logger.FieldOperation, "agent_poll"),
		logger.String(logger.FieldSourceIP, sourceIP))

	resp, err := uc.poll(ctx, req, sourceIP)

	outcome := outcomeOf(err)
	uc.Metrics.Polls.WithLabelValues(outcome).Inc()
	uc.Metrics.PollDuration.Observe(time.Since(start).Seconds())
	logger.AddToContext(ctx, logger.String(logger.FieldOutcome, outcome), logger.Bool(logger.FieldSuccess, err == nil))
	return resp, err
}

func (uc *UseCase) poll(ctx context.Context, req *dto.PollRequest, sourceIP string) (*dto.PollResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("missing poll body: %w", apperror.ErrValidation)
	}
	if err := validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("missing agentId or agentKey: %w", apperror.ErrValidation)
	}
	logger.AddToContext(ctx, logger.String(logger.FieldAgentID, req.AgentID))

	ip := geoip.CleanIP(sourceIP)
	now := uc.Now()

	var (
		agent     *models.Agent
		ipChanged bool
		lookedUp  bool
		geoInfo   models.GeoInfo
	)

	err := retry.WithExponentialBackoff(ctx, uc.PollRetry, func(ctx context.Context) error {
		a, err := uc.Repo.GetAgentByID(ctx, req.AgentID)
		if err != nil {
			return retry.Permanent(err)
		}
		if !authentication.SecureCompare(a.AgentKey, req.AgentKey) {
			return retry.Permanent(fmt.Errorf("invalid agent key: %w", apperror.ErrAuthentication))
		}

		expected := a.Version
		changed := ip != "" && ip != a.IPAddress
		// an address that stayed put but never resolved gets one more lookup
		unresolved := ip == a.IPAddress && !a.IPInfo.IsKnown() && geoip.Resolvable(ip)

		if (changed || unresolved) && !lookedUp {
			geoInfo = uc.GeoIP.Lookup(ctx, ip)
			lookedUp = true
		}
		switch {
		case changed:
			a.RecordIP(ip, geoInfo, now)
		case unresolved:
			a.IPInfo = geoInfo
		}
		a.LastSeen = &now
		a.IsActive = true

		if err := uc.Repo.SaveAgentHeartbeat(ctx, a, expected); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return err
			}
			return retry.Permanent(err)
		}
		agent, ipChanged = a, changed
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("agent update contended: %w: %v", apperror.ErrPersistence, err)
		}
		return nil, err
	}

	logger.AddToContext(ctx, logger.Bool(logger.FieldIPChanged, ipChanged))
	if ipChanged {
		uc.Metrics.IPChanges.Inc()
		uc.publish(ctx, dto.AgentEventNotification{
			AgentID:   agent.AgentID,
			Event:     dto.AgentEventIPChanged,
			IPAddress: agent.IPAddress,
			At:        now,
		})
	}

	domains, err := uc.Repo.ListActiveDomainsByUser(ctx, agent.UserID)
	if err != nil {
		return nil, err
	}
	proxies, err := uc.Repo.ListActiveProxiesForAgent(ctx, agent.UserID, agent.AgentID)
	if err != nil {
		return nil, err
	}

	snapshot := AssembleConfig(agent, domains, proxies)
	logger.AddToContext(ctx,
		logger.Int(logger.FieldDomainCount, snapshot.Stats.TotalDomains),
		logger.Int(logger.FieldProxyCount, snapshot.Stats.TotalProxies),
		logger.Int(logger.FieldRecordCount, snapshot.Stats.TotalDNSRecords),
		logger.Int(logger.FieldLocationCount, snapshot.Stats.TotalGeoDNSLocations))

	return &dto.PollResponse{
		Success:   true,
		Message:   "Configuration retrieved successfully",
		Timestamp: now,
		Agent: dto.PollAgent{
			ID:                  agent.AgentID,
			Name:                agent.Name,
			PollingInterval:     agent.PollingInterval,
			InactivityThreshold: agent.InactivityThreshold,
		},
		Domains:          snapshot.Domains,
		Proxies:          snapshot.Proxies,
		Stats:            snapshot.Stats,
		NextPollInterval: agent.PollingInterval,
	}, nil
}

// AssembleConfig builds the agent's view of its owner's configuration. Domains
// are kept only when active and at least one location lists the agent; within
// them only proxied DNS records and the agent's own locations survive. Stats are
// counted from the result.
func AssembleConfig(agent *models.Agent, domains []models.Domain, proxies []models.Proxy) dto.ConfigSnapshot {
	snap := dto.ConfigSnapshot{
		Domains: []dto.PollDomain{},
		Proxies: []dto.PollProxy{},
	}

	for i := range domains {
		d := domains[i]
		if !d.IsActive || d.UserID != agent.UserID || !d.AssignedTo(agent.AgentID) {
			continue
		}
		d.HTTPProxy.Normalize()

		out := dto.PollDomain{
			ID:              d.ID,
			Domain:          d.Domain,
			Description:     d.Description,
			DNSRecords:      []dto.PollDNSRecord{},
			GeoDNSLocations: []dto.PollLocation{},
			HTTPProxy:       dto.PollHTTPProxy{Type: d.HTTPProxy.Type},
			SSL: dto.PollSSL{
				Enabled:     d.HTTPProxy.SSL.Enabled,
				Certificate: d.HTTPProxy.SSL.Certificate,
				PrivateKey:  d.HTTPProxy.SSL.PrivateKey,
				AutoRenew:   d.HTTPProxy.SSL.AutoRenew,
			},
			LuaCode: d.HTTPProxy.LuaCode,
		}

		for _, rec := range d.DNSRecords {
			if !rec.HTTPProxyEnabled {
				continue
			}
			ttl := rec.TTL
			if ttl == 0 {
				ttl = models.DefaultRecordTTL
			}
			out.DNSRecords = append(out.DNSRecords, dto.PollDNSRecord{
				ID:       rec.ID,
				Name:     rec.Name,
				Type:     rec.Type,
				Value:    rec.Value,
				TTL:      ttl,
				Priority: rec.Priority,
			})
		}

		for _, loc := range d.GeoDNSConfig {
			if !loc.Serves(agent.AgentID) {
				continue
			}
			out.GeoDNSLocations = append(out.GeoDNSLocations, dto.PollLocation{
				Code:      loc.Code,
				Name:      loc.Name,
				Type:      loc.Type,
				Subdomain: geodns.AnycastSubdomain(loc.Code),
			})
		}

		snap.Domains = append(snap.Domains, out)
		snap.Stats.TotalDNSRecords += len(out.DNSRecords)
		snap.Stats.TotalGeoDNSLocations += len(out.GeoDNSLocations)
	}

	for i := range proxies {
		p := proxies[i]
		if !p.IsActive || p.UserID != agent.UserID || !p.ServedBy(agent.AgentID) {
			continue
		}
		snap.Proxies = append(snap.Proxies, dto.PollProxy{
			ID:              p.ID,
			Name:            p.Name,
			Type:            p.Type,
			SourcePort:      p.SourcePort,
			DestinationHost: p.DestinationHost,
			DestinationPort: p.DestinationPort,
			Enabled:         true,
		})
	}

	snap.Stats.TotalDomains = len(snap.Domains)
	snap.Stats.TotalProxies = len(snap.Proxies)
	return snap
}
