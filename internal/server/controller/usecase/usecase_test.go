package usecase

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/pkg/apperror"
	"github.com/Alwanly/service-edge-controller/pkg/geodns"
	"github.com/Alwanly/service-edge-controller/pkg/retry"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	uc   *UseCase
	repo *fakeRepo
	geo  *fakeGeo
	now  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo: newFakeRepo(),
		geo: &fakeGeo{table: map[string]models.GeoInfo{
			"203.0.113.10": geoIn("Canada", "CA"),
			"198.51.100.7": geoIn("Germany", "DE"),
			"192.0.2.44":   geoIn("Japan", "JP"),
		}},
		now: baseTime,
	}
	env.uc = NewUseCase(UseCase{
		Repo:  env.repo,
		GeoIP: env.geo,
		PollRetry: retry.Config{
			MaxRetries:     3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			Multiplier:     2,
		},
		Now: func() time.Time { return env.now },
	})
	return env
}

func (e *testEnv) pendingAgent(id, userID string) models.Agent {
	a := models.Agent{
		AgentID:             id,
		AgentKey:            "key-" + id,
		UserID:              userID,
		Name:                "edge-" + id,
		PollingInterval:     30,
		InactivityThreshold: 90,
		IPInfo:              models.UnknownGeo(),
	}
	e.repo.put(a)
	return a
}

func (e *testEnv) connectedAgent(t *testing.T, id, userID, ip string) models.Agent {
	t.Helper()
	e.pendingAgent(id, userID)
	e.repo.tokens["tok-"+id] = models.ConnectionToken{Token: "tok-" + id, AgentID: id, ExpiresAt: e.now.Add(time.Hour)}
	_, err := e.uc.Connect(context.Background(), "tok-"+id, ip)
	require.NoError(t, err)
	return e.repo.agent(id)
}

func TestConnectRedeemsTokenOnce(t *testing.T) {
	env := newTestEnv(t)
	env.pendingAgent("a1", "u1")
	env.repo.tokens["tok"] = models.ConnectionToken{Token: "tok", AgentID: "a1", ExpiresAt: env.now.Add(24 * time.Hour)}

	resp, err := env.uc.Connect(context.Background(), "tok", "::ffff:203.0.113.10")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "a1", resp.Config.AgentID)
	assert.Equal(t, "key-a1", resp.Config.AgentKey)
	assert.Equal(t, 30, resp.Config.PollingInterval)
	assert.Equal(t, PollEndpoint, resp.Config.APIEndpoint)

	agent := env.repo.agent("a1")
	assert.True(t, agent.IsConnected)
	assert.True(t, agent.IsActive)
	assert.Equal(t, "203.0.113.10", agent.IPAddress)
	assert.Equal(t, "CA", agent.IPInfo.CountryCode)
	require.NotNil(t, agent.ConnectedAt)
	assert.Equal(t, env.now, *agent.LastSeen)

	_, err = env.uc.Connect(context.Background(), "tok", "203.0.113.10")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	require.Len(t, env.repo.events, 1)
	assert.Equal(t, dto.AgentEventConnected, env.repo.events[0].Event)
}

func TestConnectConcurrentRedemptionSucceedsOnce(t *testing.T) {
	env := newTestEnv(t)
	env.pendingAgent("a1", "u1")
	env.repo.tokens["tok"] = models.ConnectionToken{Token: "tok", AgentID: "a1", ExpiresAt: env.now.Add(time.Hour)}

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.uc.Connect(context.Background(), "tok", "203.0.113.10")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.NotErrorIs(t, err, apperror.ErrNotFound)
	}
	assert.Equal(t, 1, successes)
}

func TestConnectUnknownOrExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	env.pendingAgent("a1", "u1")
	env.repo.tokens["old"] = models.ConnectionToken{Token: "old", AgentID: "a1", ExpiresAt: env.now.Add(-time.Hour)}

	_, err := env.uc.Connect(context.Background(), "missing", "203.0.113.10")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// issued 25h ago with the 24h lifetime
	_, err = env.uc.Connect(context.Background(), "old", "203.0.113.10")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = env.uc.Connect(context.Background(), "", "203.0.113.10")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.False(t, env.repo.agent("a1").IsConnected)
	assert.Zero(t, env.geo.count())
}

func TestPollWrongKeyMutatesNothing(t *testing.T) {
	env := newTestEnv(t)
	before := env.connectedAgent(t, "a1", "u1", "203.0.113.10")

	env.now = env.now.Add(time.Minute)
	_, err := env.uc.Poll(context.Background(), &dto.PollRequest{AgentID: "a1", AgentKey: "nope"}, "198.51.100.7")
	assert.ErrorIs(t, err, apperror.ErrAuthentication)

	after := env.repo.agent("a1")
	assert.Equal(t, before, after)
}

func TestPollValidationAndUnknownAgent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.Poll(context.Background(), &dto.PollRequest{AgentID: "a1"}, "198.51.100.7")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.uc.Poll(context.Background(), &dto.PollRequest{AgentID: "ghost", AgentKey: "k"}, "198.51.100.7")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPollUnchangedIPOnlyTouchesLastSeen(t *testing.T) {
	env := newTestEnv(t)
	env.connectedAgent(t, "a1", "u1", "203.0.113.10")
	lookups := env.geo.count()

	req := &dto.PollRequest{AgentID: "a1", AgentKey: "key-a1"}
	env.now = env.now.Add(time.Minute)
	_, err := env.uc.Poll(context.Background(), req, "203.0.113.10")
	require.NoError(t, err)
	first := env.repo.agent("a1")

	env.now = env.now.Add(time.Minute)
	resp, err := env.uc.Poll(context.Background(), req, "203.0.113.10")
	require.NoError(t, err)
	second := env.repo.agent("a1")

	assert.Equal(t, lookups, env.geo.count())
	assert.Empty(t, second.IPHistory)
	assert.Equal(t, first.IPAddress, second.IPAddress)
	assert.Equal(t, first.IPInfo, second.IPInfo)
	assert.Equal(t, env.now, *second.LastSeen)
	assert.Equal(t, 30, resp.NextPollInterval)
}

func TestPollUnchangedUnresolvedIPLooksUpOnce(t *testing.T) {
	env := newTestEnv(t)
	env.connectedAgent(t, "a1", "u1", "192.0.2.99")
	require.False(t, env.repo.agent("a1").IPInfo.IsKnown())
	lookups := env.geo.count()

	env.geo.mu.Lock()
	env.geo.table["192.0.2.99"] = geoIn("Japan", "JP")
	env.geo.mu.Unlock()

	req := &dto.PollRequest{AgentID: "a1", AgentKey: "key-a1"}
	env.now = env.now.Add(time.Minute)
	_, err := env.uc.Poll(context.Background(), req, "192.0.2.99")
	require.NoError(t, err)

	agent := env.repo.agent("a1")
	assert.Equal(t, lookups+1, env.geo.count())
	assert.Equal(t, "192.0.2.99", agent.IPAddress)
	assert.Equal(t, "JP", agent.IPInfo.CountryCode)
	assert.Empty(t, agent.IPHistory)

	env.now = env.now.Add(time.Minute)
	_, err = env.uc.Poll(context.Background(), req, "192.0.2.99")
	require.NoError(t, err)
	assert.Equal(t, lookups+1, env.geo.count(), "a resolved address is not looked up again")
}

func TestPollUnresolvableIPSkipsLookup(t *testing.T) {
	for _, ip := range []string{"127.0.0.1", "10.0.0.5", "fe80::1"} {
		t.Run(ip, func(t *testing.T) {
			env := newTestEnv(t)
			before := env.connectedAgent(t, "a1", "u1", ip)
			lookups := env.geo.count()

			req := &dto.PollRequest{AgentID: "a1", AgentKey: "key-a1"}
			for i := 0; i < 3; i++ {
				env.now = env.now.Add(time.Minute)
				_, err := env.uc.Poll(context.Background(), req, ip)
				require.NoError(t, err)
			}

			agent := env.repo.agent("a1")
			assert.Equal(t, lookups, env.geo.count())
			assert.Equal(t, before.IPInfo, agent.IPInfo)
			assert.Len(t, agent.IPHistory, len(before.IPHistory))
		})
	}
}

func TestPollIPChangeAppendsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.connectedAgent(t, "a1", "u1", "203.0.113.10")

	env.now = env.now.Add(time.Minute)
	_, err := env.uc.Poll(context.Background(), &dto.PollRequest{AgentID: "a1", AgentKey: "key-a1"}, "198.51.100.7")
	require.NoError(t, err)

	agent := env.repo.agent("a1")
	assert.Equal(t, "198.51.100.7", agent.IPAddress)
	assert.Equal(t, "DE", agent.IPInfo.CountryCode)
	require.Len(t, agent.IPHistory, 1)
	assert.Equal(t, "203.0.113.10", agent.IPHistory[0].IP)
	assert.Equal(t, "CA", agent.IPHistory[0].IPInfo.CountryCode)
	assert.Equal(t, env.now, agent.IPHistory[0].ChangedAt)

	require.Len(t, env.repo.events, 2)
	assert.Equal(t, dto.AgentEventIPChanged, env.repo.events[1].Event)
}

func TestPollRetriesLostRace(t *testing.T) {
	env := newTestEnv(t)
	env.connectedAgent(t, "a1", "u1", "203.0.113.10")
	lookups := env.geo.count()
	env.repo.heartbeatConflicts = 2

	_, err := env.uc.Poll(context.Background(), &dto.PollRequest{AgentID: "a1", AgentKey: "key-a1"}, "198.51.100.7")
	require.NoError(t, err)

	assert.Equal(t, 3, env.repo.heartbeatCalls)
	assert.Equal(t, lookups+1, env.geo.count())
	assert.Len(t, env.repo.agent("a1").IPHistory, 1)
}

func TestPollContentionReportsRetryablePersistence(t *testing.T) {
	env := newTestEnv(t)
	before := env.connectedAgent(t, "a1", "u1", "203.0.113.10")
	env.repo.heartbeatConflicts = 100

	_, err := env.uc.Poll(context.Background(), &dto.PollRequest{AgentID: "a1", AgentKey: "key-a1"}, "198.51.100.7")
	assert.ErrorIs(t, err, apperror.ErrPersistence)
	assert.True(t, apperror.Retryable(err))
	assert.Equal(t, before, env.repo.agent("a1"))
}

func TestPollReturnsAssignedConfig(t *testing.T) {
	env := newTestEnv(t)
	env.connectedAgent(t, "a1", "u1", "203.0.113.10")
	env.repo.domains = []models.Domain{{
		ID: "d1", UserID: "u1", Domain: "example.com", IsActive: true,
		DNSRecords: []models.DNSRecord{
			{ID: "r1", Type: "A", Name: "@", Value: "192.0.2.1", HTTPProxyEnabled: true},
		},
		GeoDNSConfig: []models.Location{{Code: "europe", Name: "Europe", Type: models.LocationContinent, AgentIDs: []string{"a1"}}},
	}}

	resp, err := env.uc.Poll(context.Background(), &dto.PollRequest{AgentID: "a1", AgentKey: "key-a1"}, "203.0.113.10")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "a1", resp.Agent.ID)
	assert.Equal(t, 90, resp.Agent.InactivityThreshold)
	require.Len(t, resp.Domains, 1)
	assert.Equal(t, models.DefaultRecordTTL, resp.Domains[0].DNSRecords[0].TTL)
	assert.Equal(t, "anycast1.europe", resp.Domains[0].GeoDNSLocations[0].Subdomain)
	assert.Equal(t, models.ProxyModeBoth, resp.Domains[0].HTTPProxy.Type)
	assert.Equal(t, dto.PollStats{TotalDomains: 1, TotalDNSRecords: 1, TotalGeoDNSLocations: 1}, resp.Stats)
}

func TestAssembleConfigFiltersPerAgent(t *testing.T) {
	agent := &models.Agent{AgentID: "a1", UserID: "u1"}
	other := "a2"
	mine := "a1"

	domains := []models.Domain{
		{
			ID: "d1", UserID: "u1", Domain: "shop.example", IsActive: true,
			DNSRecords: []models.DNSRecord{
				{ID: "r1", Type: "A", Name: "@", Value: "192.0.2.1", TTL: 300, HTTPProxyEnabled: true},
				{ID: "r2", Type: "TXT", Name: "@", Value: "v=spf1", HTTPProxyEnabled: false},
				{ID: "r3", Type: "AAAA", Name: "www", Value: "2001:db8::1", TTL: 300, HTTPProxyEnabled: true},
			},
			GeoDNSConfig: []models.Location{
				{Code: "europe", Name: "Europe", Type: models.LocationContinent, AgentIDs: []string{"a1", "a2"}},
				{Code: "asia", Name: "Asia", Type: models.LocationContinent, AgentIDs: []string{"a2"}},
				{Code: "us", Name: "United States", Type: models.LocationCountry, AgentIDs: []string{"a1"}},
			},
			HTTPProxy: models.HTTPProxySettings{Type: models.ProxyModeHTTPS, SSL: models.SSLSettings{Enabled: true, AutoRenew: true}, LuaCode: "-- waf"},
		},
		{ID: "d2", UserID: "u1", Domain: "other.example", IsActive: true,
			GeoDNSConfig: []models.Location{{Code: "asia", AgentIDs: []string{"a2"}}}},
		{ID: "d3", UserID: "u1", Domain: "off.example", IsActive: false,
			GeoDNSConfig: []models.Location{{Code: "europe", AgentIDs: []string{"a1"}}}},
	}
	proxies := []models.Proxy{
		{ID: "p1", UserID: "u1", Name: "global", Type: models.ProxyTCP, SourcePort: 2222, DestinationHost: "10.0.0.1", DestinationPort: 22, IsActive: true},
		{ID: "p2", UserID: "u1", Name: "mine", Type: models.ProxyUDP, SourcePort: 53, DestinationHost: "10.0.0.2", DestinationPort: 53, AgentID: &mine, IsActive: true},
		{ID: "p3", UserID: "u1", Name: "theirs", Type: models.ProxyTCP, SourcePort: 80, DestinationHost: "10.0.0.3", DestinationPort: 80, AgentID: &other, IsActive: true},
		{ID: "p4", UserID: "u1", Name: "off", Type: models.ProxyTCP, SourcePort: 81, DestinationHost: "10.0.0.4", DestinationPort: 81, IsActive: false},
	}

	snap := AssembleConfig(agent, domains, proxies)

	require.Len(t, snap.Domains, 1)
	d := snap.Domains[0]
	assert.Equal(t, "d1", d.ID)

	var recordIDs []string
	for _, r := range d.DNSRecords {
		recordIDs = append(recordIDs, r.ID)
	}
	assert.Equal(t, []string{"r1", "r3"}, recordIDs)

	assert.Equal(t, []dto.PollLocation{
		{Code: "europe", Name: "Europe", Type: models.LocationContinent, Subdomain: "anycast1.europe"},
		{Code: "us", Name: "United States", Type: models.LocationCountry, Subdomain: "anycast1.us"},
	}, d.GeoDNSLocations)

	assert.Equal(t, models.ProxyModeHTTPS, d.HTTPProxy.Type)
	assert.True(t, d.SSL.Enabled)
	assert.True(t, d.SSL.AutoRenew)
	assert.Equal(t, "-- waf", d.LuaCode)

	require.Len(t, snap.Proxies, 2)
	assert.Equal(t, "p1", snap.Proxies[0].ID)
	assert.Equal(t, "p2", snap.Proxies[1].ID)
	assert.True(t, snap.Proxies[0].Enabled)

	assert.Equal(t, dto.PollStats{TotalDomains: 1, TotalProxies: 2, TotalDNSRecords: 2, TotalGeoDNSLocations: 2}, snap.Stats)
}

func TestAssembleConfigEmpty(t *testing.T) {
	snap := AssembleConfig(&models.Agent{AgentID: "a1", UserID: "u1"}, nil, nil)
	assert.NotNil(t, snap.Domains)
	assert.NotNil(t, snap.Proxies)
	assert.Zero(t, snap.Stats)
}

func TestAnycastFallsBackToNearestAgent(t *testing.T) {
	env := newTestEnv(t)
	env.connectedAgent(t, "a2", "u1", "203.0.113.10")
	env.connectedAgent(t, "a3", "u1", "198.51.100.7")
	env.repo.domains = []models.Domain{{
		ID: "d1", UserID: "u1", Domain: "example.com", IsActive: true,
		GeoDNSConfig: []models.Location{
			{Code: "us", Name: "United States", Type: models.LocationCountry},
			{Code: "europe", Name: "Europe", Type: models.LocationContinent},
		},
	}}

	res := env.uc.Anycast(context.Background(), "d1")
	require.Equal(t, http.StatusOK, res.Code)

	body := res.Data.(dto.AnycastResponse)
	require.Len(t, body.Records, 2)

	us := body.Records[0]
	assert.Equal(t, "a2", us.AgentID)
	assert.Equal(t, 0.5, us.Distance)
	assert.False(t, us.IsDirect)
	assert.Equal(t, "203.0.113.10", us.Value)

	eu := body.Records[1]
	assert.Equal(t, "a3", eu.AgentID)
	assert.True(t, eu.IsDirect)
	assert.Zero(t, eu.Distance)

	assert.Len(t, body.Zone, 2)
	assert.Contains(t, body.Zone[0], "us.example.com.")
}

func TestAnycastWithoutAgents(t *testing.T) {
	env := newTestEnv(t)
	env.repo.domains = []models.Domain{{ID: "d1", UserID: "u1", Domain: "example.com", IsActive: true,
		GeoDNSConfig: []models.Location{{Code: "asia"}}}}

	res := env.uc.Anycast(context.Background(), "d1")
	body := res.Data.(dto.AnycastResponse)
	require.Len(t, body.Records, 1)
	assert.Equal(t, geodns.ErrNoAgent, body.Records[0].Error)
	assert.Empty(t, body.Records[0].Value)
	assert.Empty(t, body.Zone)

	missing := env.uc.Anycast(context.Background(), "nope")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestSweepInactiveMarksStaleAgents(t *testing.T) {
	env := newTestEnv(t)
	env.connectedAgent(t, "a1", "u1", "203.0.113.10")
	env.connectedAgent(t, "a2", "u1", "198.51.100.7")

	env.now = env.now.Add(60 * time.Second)
	_, err := env.uc.Poll(context.Background(), &dto.PollRequest{AgentID: "a2", AgentKey: "key-a2"}, "198.51.100.7")
	require.NoError(t, err)

	// a1 last polled 100s ago with a 90s threshold
	env.now = env.now.Add(40 * time.Second)
	require.NoError(t, env.uc.SweepInactive(context.Background()))

	assert.False(t, env.repo.agent("a1").IsActive)
	assert.True(t, env.repo.agent("a2").IsActive)
	assert.Equal(t, dto.AgentEventInactive, env.repo.events[len(env.repo.events)-1].Event)
}

func TestCreateAgentIssuesConnectURL(t *testing.T) {
	env := newTestEnv(t)
	env.uc.Config.PublicURL = "https://ctl.example"

	res := env.uc.CreateAgent(context.Background(), &dto.CreateAgentRequest{Name: "edge", UserID: "u1"})
	require.Equal(t, http.StatusCreated, res.Code)

	body := res.Data.(dto.CreateAgentResponse)
	assert.Equal(t, "https://ctl.example/api/agent/connect/"+body.ConnectionToken, body.ConnectURL)

	agent := env.repo.agent(body.AgentID)
	assert.False(t, agent.IsConnected)
	assert.Equal(t, models.DefaultPollingInterval, agent.PollingInterval)
	assert.Equal(t, models.DefaultInactivityThreshold, agent.InactivityThreshold)
}

func TestConfigChangesNotifyAgents(t *testing.T) {
	env := newTestEnv(t)
	agentID := "a1"

	res := env.uc.CreateProxy(context.Background(), &dto.CreateProxyRequest{
		UserID: "u1", Name: "ssh", Type: "tcp", SourcePort: 2222,
		DestinationHost: "10.0.0.5", DestinationPort: 22, AgentID: &agentID,
	})
	require.Equal(t, http.StatusCreated, res.Code)

	last := env.repo.events[len(env.repo.events)-1]
	assert.Equal(t, dto.AgentEventConfigChanged, last.Event)
	assert.Equal(t, "a1", last.AgentID)
	assert.Equal(t, "u1", last.UserID)
}
