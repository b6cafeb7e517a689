package analytics

import (
	"net/url"
	"strings"

	"sitepulse/internal/visits"
)

// Normalized referrer labels
const (
	DirectReferrer  = "Direct"
	UnknownReferrer = "Unknown"
)

// NormalizeReferrer maps a stored referrer onto the label used for grouping:
// "Direct" for no referrer, the lower-cased hostname without a leading
// "www." for absolute URLs, and "Unknown" for anything else.
func NormalizeReferrer(referrer string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" || referrer == visits.DirectReferrer {
		return DirectReferrer
	}

	parsed, err := url.Parse(referrer)
	if err != nil || parsed.Scheme == "" {
		return UnknownReferrer
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return UnknownReferrer
	}
	return host
}
