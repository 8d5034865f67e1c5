package dto

import "time"

// PollRequest represents the body of an agent poll
type PollRequest struct {
	AgentID  string `json:"agentId" validate:"required" example:"0192f1a4-7c3e-7b61-9a55-3f1e2d4c5b6a"`
	AgentKey string `json:"agentKey" validate:"required" example:"9f2c..."`
}

type PollAgent struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	PollingInterval     int    `json:"pollingInterval"`
	InactivityThreshold int    `json:"inactivityThreshold"`
}

type PollDNSRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	TTL      int    `json:"ttl"`
	Priority *int   `json:"priority"`
}

type PollLocation struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Subdomain string `json:"subdomain"`
}

type PollHTTPProxy struct {
	Type string `json:"type"`
}

type PollSSL struct {
	Enabled     bool   `json:"enabled"`
	Certificate string `json:"certificate"`
	PrivateKey  string `json:"privateKey"`
	AutoRenew   bool   `json:"autoRenew"`
}

type PollDomain struct {
	ID              string          `json:"id"`
	Domain          string          `json:"domain"`
	Description     string          `json:"description"`
	DNSRecords      []PollDNSRecord `json:"dnsRecords"`
	GeoDNSLocations []PollLocation  `json:"geoDnsLocations"`
	HTTPProxy       PollHTTPProxy   `json:"httpProxy"`
	SSL             PollSSL         `json:"ssl"`
	LuaCode         string          `json:"luaCode"`
}

type PollProxy struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	SourcePort      int    `json:"sourcePort"`
	DestinationHost string `json:"destinationHost"`
	DestinationPort int    `json:"destinationPort"`
	Enabled         bool   `json:"enabled"`
}

type PollStats struct {
	TotalDomains         int `json:"totalDomains"`
	TotalProxies         int `json:"totalProxies"`
	TotalDNSRecords      int `json:"totalDnsRecords"`
	TotalGeoDNSLocations int `json:"totalGeoDnsLocations"`
}

// ConfigSnapshot is the full edge configuration delivered on every poll
type ConfigSnapshot struct {
	Domains []PollDomain `json:"domains"`
	Proxies []PollProxy  `json:"proxies"`
	Stats   PollStats    `json:"stats"`
}

// PollResponse represents the response to a successful poll
type PollResponse struct {
	Success          bool         `json:"success" example:"true"`
	Message          string       `json:"message" example:"Configuration retrieved successfully"`
	Timestamp        time.Time    `json:"timestamp"`
	Agent            PollAgent    `json:"agent"`
	Domains          []PollDomain `json:"domains"`
	Proxies          []PollProxy  `json:"proxies"`
	Stats            PollStats    `json:"stats"`
	NextPollInterval int          `json:"nextPollInterval" example:"60"`
}
