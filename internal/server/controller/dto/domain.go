package dto

import (
	"github.com/Alwanly/service-edge-controller/internal/models"
	"github.com/Alwanly/service-edge-controller/pkg/geodns"
)

// CreateDomainRequest registers a domain; omitted locations default to the standard set
type CreateDomainRequest struct {
	UserID       string                   `json:"userId" validate:"required"`
	Domain       string                   `json:"domain" validate:"required,fqdn"`
	Description  string                   `json:"description"`
	DNSRecords   []models.DNSRecord       `json:"dnsRecords"`
	GeoDNSConfig []models.Location        `json:"geoDnsConfig"`
	HTTPProxy    models.HTTPProxySettings `json:"httpProxy"`
}

// CreateProxyRequest registers an L4 forwarding rule; AgentID nil makes it global
type CreateProxyRequest struct {
	UserID          string  `json:"userId" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	Type            string  `json:"type" validate:"required,oneof=tcp udp"`
	SourcePort      int     `json:"sourcePort" validate:"required,min=1,max=65535"`
	DestinationHost string  `json:"destinationHost" validate:"required"`
	DestinationPort int     `json:"destinationPort" validate:"required,min=1,max=65535"`
	AgentID         *string `json:"agentId,omitempty"`
}

// AnycastResponse lists the per-location anycast records of a domain
type AnycastResponse struct {
	DomainID string                 `json:"domainId"`
	Domain   string                 `json:"domain"`
	Records  []geodns.AnycastRecord `json:"records"`
	Zone     []string               `json:"zone"`
}
