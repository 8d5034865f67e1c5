package geoip

import (
	"net"
	"strings"
)

// CleanIP strips whitespace and the IPv4-mapped IPv6 prefix (::ffff:1.2.3.4 -> 1.2.3.4).
func CleanIP(ip string) string {
	ip = strings.TrimSpace(ip)
	return strings.TrimPrefix(ip, "::ffff:")
}

// IsLocal reports addresses that have no meaningful geolocation.
func IsLocal(ip string) bool {
	if ip == "" || ip == "localhost" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

// IsPrivate reports addresses that are routable only inside a site: RFC 1918 and
// unique-local ranges, link-local and the unspecified address. Providers cannot
// place them, so they are never sent upstream.
func IsPrivate(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsPrivate() ||
		parsed.IsLinkLocalUnicast() ||
		parsed.IsLinkLocalMulticast() ||
		parsed.IsUnspecified()
}

// Resolvable reports whether a geolocation provider could place ip.
func Resolvable(ip string) bool {
	ip = CleanIP(ip)
	return !IsLocal(ip) && !IsPrivate(ip)
}
