package v1

import (
	"log/slog"
	"net"
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/apperr"
	"sitepulse/internal/visits"
)

// getClientIP returns the first address of the forwarding headers, or
// visits.UnknownIP when the request carried none. The socket address is
// never used.
func getClientIP(c *fiber.Ctx) string {
	if ip := firstForwardedIP(strings.Split(c.Get("X-Forwarded-For"), ",")); ip != "" {
		return ip
	}

	// Other reverse-proxy headers
	for _, header := range []string{
		"X-Real-IP",
		"CF-Connecting-IP",
		"True-Client-IP",
	} {
		if value := c.Get(header); value != "" {
			if ip := firstForwardedIP([]string{value}); ip != "" {
				return ip
			}
		}
	}

	if forwarded := c.Get("Forwarded"); forwarded != "" {
		if ip := firstForwardedIP(parseForwardedHeader(forwarded)); ip != "" {
			return ip
		}
	}

	return visits.UnknownIP
}

// firstForwardedIP returns the first parseable address in values. The
// client is the left-most entry of a forwarding chain.
func firstForwardedIP(values []string) string {
	for _, raw := range values {
		if clean, parsed := normalizeIP(raw); parsed != nil {
			return clean
		}
	}
	return ""
}

func normalizeIP(raw string) (string, net.IP) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"")
	if clean == "" {
		return "", nil
	}

	// Remove zone identifier if present (e.g. fe80::1%eth0)
	if percent := strings.Index(clean, "%"); percent != -1 {
		clean = clean[:percent]
	}

	// Try parsing addr:port (handles both IPv4:port and [IPv6]:port)
	if addrPort, err := netip.ParseAddrPort(clean); err == nil {
		addr := addrPort.Addr()
		if addr.Is4In6() {
			addr = addr.Unmap()
		}
		ipStr := addr.String()
		return ipStr, net.ParseIP(ipStr)
	}

	trimmed := clean
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		trimmed = strings.TrimPrefix(trimmed, "[")
		trimmed = strings.TrimSuffix(trimmed, "]")
	}

	if addr, err := netip.ParseAddr(trimmed); err == nil {
		if addr.Is4In6() {
			addr = addr.Unmap()
		}
		ipStr := addr.String()
		return ipStr, net.ParseIP(ipStr)
	}

	if host, _, err := net.SplitHostPort(clean); err == nil {
		return normalizeIP(host)
	}

	return "", nil
}

func parseForwardedHeader(header string) []string {
	var candidates []string

	entries := strings.Split(header, ",")
	for _, entry := range entries {
		parts := strings.Split(entry, ";")
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(strings.ToLower(part), "for=") {
				candidates = append(candidates, part[len("for="):])
			}
		}
	}

	return candidates
}

// respondError writes the JSON error body for err. Client errors carry their
// own message; storage and internal failures are logged and masked.
func respondError(ctx *cartridge.Context, err error) error {
	status := apperr.HTTPStatusCode(err)
	if status >= fiber.StatusInternalServerError {
		ctx.Logger.Error("Request failed",
			slog.String("method", ctx.Method()),
			slog.String("path", ctx.Path()),
			slog.Any("error", err))
	} else {
		ctx.Logger.Debug("Request rejected",
			slog.String("path", ctx.Path()),
			slog.Int("status", status),
			slog.Any("error", err))
	}

	return ctx.Status(status).JSON(fiber.Map{
		"error": apperr.PublicMessage(err),
		"code":  apperr.Code(err),
	})
}
