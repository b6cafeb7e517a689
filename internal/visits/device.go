package visits

import "strings"

// ClassifyDevice derives a device class from a raw user-agent string.
//
// This is a best-effort substring heuristic, not a user-agent parser:
// "Mobile" wins over "Tablet", and anything else (including an empty user
// agent) is treated as desktop. Matching is case-sensitive.
func ClassifyDevice(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Mobile"):
		return DeviceMobile
	case strings.Contains(userAgent, "Tablet"):
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}
