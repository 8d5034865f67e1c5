package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	LocationContinent = "continent"
	LocationCountry   = "country"
	LocationCustom    = "custom"

	ProxyModeHTTP  = "http"
	ProxyModeHTTPS = "https"
	ProxyModeBoth  = "both"

	DefaultRecordTTL = 3600
)

type DNSRecord struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	Name             string `json:"name"`
	Value            string `json:"value"`
	TTL              int    `json:"ttl"`
	Priority         *int   `json:"priority"`
	HTTPProxyEnabled bool   `json:"httpProxyEnabled"`
}

// Location is a GeoDNS bucket of a domain and the agents allowed to serve it.
type Location struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	AgentIDs []string `json:"agentIds"`
}

// Serves reports whether agentID is listed for this location.
func (l Location) Serves(agentID string) bool {
	return slices.Contains(l.AgentIDs, agentID)
}

type SSLSettings struct {
	Enabled     bool   `json:"enabled"`
	Certificate string `json:"certificate"`
	PrivateKey  string `json:"privateKey"`
	AutoRenew   bool   `json:"autoRenew"`
}

type HTTPProxySettings struct {
	Type    string      `json:"type"`
	SSL     SSLSettings `json:"ssl"`
	LuaCode string      `json:"luaCode"`
}

// Normalize fills the defaults of the proxy block so readers never re-derive them.
func (h *HTTPProxySettings) Normalize() {
	if h.Type == "" {
		h.Type = ProxyModeBoth
	}
}

type Domain struct {
	ID           string            `gorm:"primaryKey;column:id" json:"id"`
	UserID       string            `gorm:"column:user_id;index;not null" json:"userId"`
	Domain       string            `gorm:"column:domain;uniqueIndex;not null" json:"domain"`
	Description  string            `gorm:"column:description" json:"description"`
	IsActive     bool              `gorm:"column:is_active;index" json:"isActive"`
	DNSRecords   []DNSRecord       `gorm:"column:dns_records;serializer:json" json:"dnsRecords"`
	GeoDNSConfig []Location        `gorm:"column:geo_dns_config;serializer:json" json:"geoDnsConfig"`
	HTTPProxy    HTTPProxySettings `gorm:"column:http_proxy;serializer:json" json:"httpProxy"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Domain) TableName() string {
	return "domains"
}

// Normalize applies record and proxy defaults in place.
func (d *Domain) Normalize() {
	d.HTTPProxy.Normalize()
	for i := range d.DNSRecords {
		if d.DNSRecords[i].TTL == 0 {
			d.DNSRecords[i].TTL = DefaultRecordTTL
		}
	}
}

// Validate enforces unique location codes within the domain, ignoring case.
func (d *Domain) Validate() error {
	seen := make(map[string]struct{}, len(d.GeoDNSConfig))
	for _, loc := range d.GeoDNSConfig {
		code := strings.ToLower(strings.TrimSpace(loc.Code))
		if code == "" {
			return fmt.Errorf("location code is empty")
		}
		if _, dup := seen[code]; dup {
			return fmt.Errorf("duplicate location code %q", loc.Code)
		}
		seen[code] = struct{}{}
	}
	return nil
}

// AssignedTo reports whether at least one location lists agentID.
func (d *Domain) AssignedTo(agentID string) bool {
	for _, loc := range d.GeoDNSConfig {
		if loc.Serves(agentID) {
			return true
		}
	}
	return false
}

// DefaultLocations is the location set new domains start with.
func DefaultLocations() []Location {
	locs := []Location{
		{Code: "europe", Name: "Europe", Type: LocationContinent},
		{Code: "north-america", Name: "North America", Type: LocationContinent},
		{Code: "south-america", Name: "South America", Type: LocationContinent},
		{Code: "africa", Name: "Africa", Type: LocationContinent},
		{Code: "asia", Name: "Asia", Type: LocationContinent},
		{Code: "oceania", Name: "Oceania", Type: LocationContinent},

		{Code: "us", Name: "United States", Type: LocationCountry},
		{Code: "ca", Name: "Canada", Type: LocationCountry},
		{Code: "au", Name: "Australia", Type: LocationCountry},
		{Code: "jp", Name: "Japan", Type: LocationCountry},
		{Code: "ir", Name: "Iran", Type: LocationCountry},
		{Code: "ae", Name: "United Arab Emirates", Type: LocationCountry},
		{Code: "tr", Name: "Turkey", Type: LocationCountry},
		{Code: "cn", Name: "China", Type: LocationCountry},
		{Code: "kz", Name: "Kazakhstan", Type: LocationCountry},
		{Code: "ru", Name: "Russia", Type: LocationCountry},
	}
	for i := range locs {
		locs[i].AgentIDs = []string{}
	}
	return locs
}
