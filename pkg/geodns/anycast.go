package geodns

import (
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"
)

const (
	// AnycastTTL stays low so answers follow agent churn quickly.
	AnycastTTL = 60

	anycastPrefix = "anycast1"

	ErrNoAgent = "No agent available for this location"
)

// AnycastSubdomain is the name agents serve a location under.
func AnycastSubdomain(locationCode string) string {
	return anycastPrefix + "." + locationCode
}

// AnycastRecord is one answer per location. Value is empty and Error set when no
// agent could be chosen.
type AnycastRecord struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Value        string  `json:"value,omitempty"`
	TTL          uint32  `json:"ttl"`
	LocationCode string  `json:"locationCode"`
	AgentID      string  `json:"agentId,omitempty"`
	AgentName    string  `json:"agentName,omitempty"`
	Distance     float64 `json:"distance"`
	IsDirect     bool    `json:"isDirect"`
	Description  string  `json:"description,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Resolved reports whether the record carries an address.
func (rec AnycastRecord) Resolved() bool {
	return rec.Error == "" && rec.Value != ""
}

// RR renders the record for zone as a DNS resource record. Unresolved records and
// unparsable addresses yield false.
func (rec AnycastRecord) RR(zone string) (dns.RR, bool) {
	if !rec.Resolved() {
		return nil, false
	}
	ip := net.ParseIP(rec.Value)
	if ip == nil {
		return nil, false
	}
	hdr := dns.RR_Header{
		Name:  dns.Fqdn(strings.TrimSuffix(rec.Name+"."+zone, ".")),
		Class: dns.ClassINET,
		Ttl:   rec.TTL,
	}
	if v4 := ip.To4(); v4 != nil {
		hdr.Rrtype = dns.TypeA
		return &dns.A{Hdr: hdr, A: v4}, true
	}
	hdr.Rrtype = dns.TypeAAAA
	return &dns.AAAA{Hdr: hdr, AAAA: ip}, true
}

// BuildAnycastRecords resolves every location once against the same agent snapshot
// and emits one record per location, in location order.
func (r *Resolver) BuildAnycastRecords(locationCodes []string, agents []Agent) []AnycastRecord {
	records := make([]AnycastRecord, 0, len(locationCodes))
	for _, code := range locationCodes {
		records = append(records, toRecord(r.Resolve(code, agents)))
	}
	return records
}

func toRecord(res Result) AnycastRecord {
	rec := AnycastRecord{
		Name:         res.LocationCode,
		Type:         "A",
		TTL:          AnycastTTL,
		LocationCode: res.LocationCode,
	}
	if !res.Found {
		rec.Error = ErrNoAgent
		return rec
	}
	rec.Value = res.AgentIP
	rec.AgentID = res.AgentID
	rec.AgentName = res.AgentName
	rec.Distance = res.Distance
	rec.IsDirect = res.IsDirect
	if res.IsDirect {
		rec.Description = fmt.Sprintf("Direct: %s", res.AgentName)
	} else {
		rec.Description = fmt.Sprintf("Nearest: %s (distance: %g)", res.AgentName, res.Distance)
	}
	return rec
}

// Answers converts resolved records to RRs for zone, skipping unresolved ones.
func Answers(zone string, records []AnycastRecord) []dns.RR {
	out := make([]dns.RR, 0, len(records))
	for _, rec := range records {
		if rr, ok := rec.RR(zone); ok {
			out = append(out, rr)
		}
	}
	return out
}
