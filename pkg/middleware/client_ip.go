package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Alwanly/service-edge-controller/pkg/geoip"
)

// ClientIP returns the caller address, preferring proxy headers in the order
// CF-Connecting-IP, X-Real-IP, first X-Forwarded-For entry, then the peer.
// With fiber's EnableTrustedProxyCheck on, headers are read only when the peer
// is one of the configured TrustedProxies.
func ClientIP(c *fiber.Ctx) string {
	if !c.IsProxyTrusted() {
		return geoip.CleanIP(c.IP())
	}
	if ip := c.Get("CF-Connecting-IP"); ip != "" {
		return geoip.CleanIP(ip)
	}
	if ip := c.Get("X-Real-IP"); ip != "" {
		return geoip.CleanIP(ip)
	}
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := geoip.CleanIP(first); ip != "" {
			return ip
		}
	}
	return geoip.CleanIP(c.IP())
}
