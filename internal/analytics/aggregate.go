package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sitepulse/internal/sites"
	"sitepulse/internal/visits"
)

// UnknownDevice labels visits recorded without a device class
const UnknownDevice = "unknown"

// Aggregate reduces a user's sites and the merged visits of those sites into
// a Summary. It performs no I/O and does not modify its inputs.
func Aggregate(siteList []sites.Site, visitList []visits.Visit) *Summary {
	summary := EmptySummary()
	summary.TotalSites = len(siteList)

	for _, site := range siteList {
		summary.TotalViews += site.Views
	}

	summary.UniqueVisitors = countUniqueVisitors(visitList)
	summary.AvgSessionDuration = FormatDuration(averageSessionDuration(visitList))
	summary.TopSites = topSites(siteList, summary.TotalViews)
	summary.DeviceData = deviceBreakdown(visitList)
	summary.ReferrerData = referrerBreakdown(visitList)
	summary.RecentVisits = recentVisits(visitList)

	return summary
}

// Percentage returns part/total as a whole percentage rounded half up,
// or 0 when total is not positive.
func Percentage(part, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(part)*100/float64(total) + 0.5))
}

// FormatDuration renders seconds as "Ns" below one minute and "Mm Ss" above.
func FormatDuration(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", int(math.Floor(seconds+0.5)))
	}
	minutes := int(math.Floor(seconds / 60))
	rest := int(math.Floor(math.Mod(seconds, 60) + 0.5))
	return fmt.Sprintf("%dm %ds", minutes, rest)
}

// Blank visitor ids share a single anonymous bucket.
func countUniqueVisitors(visitList []visits.Visit) int {
	seen := make(map[string]struct{}, len(visitList))
	for _, v := range visitList {
		seen[strings.TrimSpace(v.VisitorID)] = struct{}{}
	}
	return len(seen)
}

// Only visits with a positive duration count toward sum and count.
func averageSessionDuration(visitList []visits.Visit) float64 {
	var total, count int64
	for _, v := range visitList {
		if v.SessionDuration > 0 {
			total += int64(v.SessionDuration)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func topSites(siteList []sites.Site, totalViews int64) []TopSite {
	sorted := make([]sites.Site, len(siteList))
	copy(sorted, siteList)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Views > sorted[j].Views
	})

	if len(sorted) > TopSitesLimit {
		sorted = sorted[:TopSitesLimit]
	}

	result := make([]TopSite, len(sorted))
	for i, site := range sorted {
		result[i] = TopSite{
			Name:       site.Title,
			Slug:       site.Slug,
			Views:      site.Views,
			Percentage: Percentage(site.Views, totalViews),
		}
	}
	return result
}

func deviceBreakdown(visitList []visits.Visit) []DeviceBreakdown {
	counts := groupCounts(visitList, func(v visits.Visit) string {
		device := strings.TrimSpace(v.Device)
		if device == "" {
			device = UnknownDevice
		}
		return capitalizeFirst(device)
	})

	total := int64(len(visitList))
	result := make([]DeviceBreakdown, len(counts))
	for i, c := range counts {
		result[i] = DeviceBreakdown{
			Type:       c.Name,
			Count:      c.Count,
			Percentage: Percentage(c.Count, total),
		}
	}
	return result
}

func referrerBreakdown(visitList []visits.Visit) []ReferrerBreakdown {
	counts := groupCounts(visitList, func(v visits.Visit) string {
		return NormalizeReferrer(v.Referrer)
	})
	if len(counts) > TopReferrersLimit {
		counts = counts[:TopReferrersLimit]
	}

	total := int64(len(visitList))
	result := make([]ReferrerBreakdown, len(counts))
	for i, c := range counts {
		result[i] = ReferrerBreakdown{
			Source:     c.Name,
			Count:      c.Count,
			Percentage: Percentage(c.Count, total),
		}
	}
	return result
}

func recentVisits(visitList []visits.Visit) []visits.Visit {
	sorted := make([]visits.Visit, len(visitList))
	copy(sorted, visitList)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].VisitedAt.After(sorted[j].VisitedAt)
	})

	if len(sorted) > RecentVisitsLimit {
		sorted = sorted[:RecentVisitsLimit]
	}
	return sorted
}

// groupCounts counts visits per key, sorted by count descending and then by
// name so equal counts come out in a stable order.
func groupCounts(visitList []visits.Visit, key func(visits.Visit) string) []MetricCountResult {
	index := make(map[string]int)
	var counts []MetricCountResult
	for _, v := range visitList {
		name := key(v)
		i, ok := index[name]
		if !ok {
			i = len(counts)
			index[name] = i
			counts = append(counts, MetricCountResult{Name: name})
		}
		counts[i].Count++
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	return counts
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.Und).String(string(r)) + s[size:]
}
