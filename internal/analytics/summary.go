package analytics

import (
	"sitepulse/internal/visits"
)

// Breakdown limits and feed size of the summary
const (
	TopSitesLimit     = 5
	TopReferrersLimit = 5
	RecentVisitsLimit = 10
)

// Summary is the analytics model shown on the dashboard. Every field is
// recomputed from the raw sites and visits on each request.
type Summary struct {
	TotalViews         int64               `json:"totalViews"`
	TotalSites         int                 `json:"totalSites"`
	UniqueVisitors     int                 `json:"uniqueVisitors"`
	AvgSessionDuration string              `json:"avgSessionDuration"`
	TopSites           []TopSite           `json:"topSites"`
	DeviceData         []DeviceBreakdown   `json:"deviceData"`
	ReferrerData       []ReferrerBreakdown `json:"referrerData"`
	RecentVisits       []visits.Visit      `json:"recentVisits"`
}

// TopSite is one entry of the views ranking
type TopSite struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Views      int64  `json:"views"`
	Percentage int    `json:"percentage"`
}

// DeviceBreakdown counts visits per device class
type DeviceBreakdown struct {
	Type       string `json:"type"`
	Count      int64  `json:"count"`
	Percentage int    `json:"percentage"`
}

// ReferrerBreakdown counts visits per normalized referrer
type ReferrerBreakdown struct {
	Source     string `json:"source"`
	Count      int64  `json:"count"`
	Percentage int    `json:"percentage"`
}

// MetricCountResult is a named count used while grouping
type MetricCountResult struct {
	Name  string
	Count int64
}

// EmptySummary returns the summary of a user without sites
func EmptySummary() *Summary {
	return &Summary{
		AvgSessionDuration: FormatDuration(0),
		TopSites:           []TopSite{},
		DeviceData:         []DeviceBreakdown{},
		ReferrerData:       []ReferrerBreakdown{},
		RecentVisits:       []visits.Visit{},
	}
}
