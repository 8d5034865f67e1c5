package usecase

import (
	"context"
	"net/http"

	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/pkg/geodns"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/metrics"
	"github.com/Alwanly/service-edge-controller/pkg/wrapper"
)

// decisionObserver logs and counts every resolver decision.
type decisionObserver struct {
	log     *logger.CanonicalLogger
	metrics *metrics.Metrics
}

func newDecisionObserver(log *logger.CanonicalLogger, m *metrics.Metrics) geodns.Observer {
	return &decisionObserver{log: log, metrics: m}
}

func (o *decisionObserver) Resolved(res geodns.Result, eligible int) {
	kind := "fallback"
	switch {
	case !res.Found:
		kind = "none"
	case res.IsDirect:
		kind = "direct"
	}
	o.metrics.GeoDNSDecisions.WithLabelValues(kind).Inc()

	o.log.WithLocation(res.LocationCode).Debug("geodns decision",
		logger.String("kind", kind),
		logger.String(logger.FieldAgentID, res.AgentID),
		logger.Float64("distance", res.Distance),
		logger.Int("eligible_agents", eligible))
}

// Anycast resolves every location of a domain against the owner's live agents.
func (uc *UseCase) Anycast(ctx context.Context, domainID string) wrapper.JSONResult {
	logger.AddToContext(ctx,
		logger.String(logger.FieldOperation, "domain_anycast"),
		logger.String(logger.FieldDomainID, domainID))

	domain, err := uc.Repo.GetDomain(ctx, domainID)
	if err != nil {
		logger.AddToContext(ctx, logger.Error(err))
		return wrapper.ResponseError(err)
	}

	agents, err := uc.Repo.ListAgentsByUser(ctx, domain.UserID)
	if err != nil {
		logger.AddToContext(ctx, logger.Error(err))
		return wrapper.ResponseError(err)
	}

	records := uc.BuildAnycastRecords(domain, agents)

	zone := make([]string, 0, len(records))
	for _, rr := range geodns.Answers(domain.Domain, records) {
		zone = append(zone, rr.String())
	}
	logger.AddToContext(ctx, logger.Int(logger.FieldLocationCount, len(records)))

	return wrapper.ResponseSuccess(http.StatusOK, dto.AnycastResponse{
		DomainID: domain.ID,
		Domain:   domain.Domain,
		Records:  records,
		Zone:     zone,
	})
}

// BuildAnycastRecords emits one record per location of domain.
func (uc *UseCase) BuildAnycastRecords(domain *models.Domain, agents []models.Agent) []geodns.AnycastRecord {
	codes := make([]string, 0, len(domain.GeoDNSConfig))
	for _, loc := range domain.GeoDNSConfig {
		codes = append(codes, loc.Code)
	}
	return uc.Resolver.BuildAnycastRecords(codes, toResolverAgents(agents))
}

func toResolverAgents(agents []models.Agent) []geodns.Agent {
	out := make([]geodns.Agent, 0, len(agents))
	for i := range agents {
		a := &agents[i]
		out = append(out, geodns.Agent{
			ID:          a.AgentID,
			Name:        a.Name,
			IP:          a.IPAddress,
			CountryCode: a.IPInfo.CountryCode,
			Active:      a.Eligible(),
		})
	}
	return out
}
