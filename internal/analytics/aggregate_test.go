package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/sites"
	"sitepulse/internal/visits"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func visitAt(siteID string, minutes int) visits.Visit {
	return visits.Visit{
		ID:        fmt.Sprintf("%s-%d", siteID, minutes),
		SiteID:    siteID,
		VisitorID: fmt.Sprintf("visitor_%d", minutes),
		Device:    visits.DeviceDesktop,
		Referrer:  visits.DirectReferrer,
		VisitedAt: baseTime.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestAggregateEndToEndScenario(t *testing.T) {
	siteList := []sites.Site{
		{ID: "b", Title: "Site B", Slug: "site-b", Views: 50},
		{ID: "a", Title: "Site A", Slug: "site-a", Views: 100},
	}
	durations := []int{0, 60, 120}
	var visitList []visits.Visit
	for i, d := range durations {
		v := visitAt("a", i)
		v.SessionDuration = d
		visitList = append(visitList, v)
	}
	visitList = append(visitList, visitAt("b", 10))

	summary := Aggregate(siteList, visitList)

	assert.Equal(t, int64(150), summary.TotalViews)
	assert.Equal(t, 2, summary.TotalSites)
	assert.Equal(t, 4, summary.UniqueVisitors)
	assert.Equal(t, "1m 30s", summary.AvgSessionDuration)
	require.Len(t, summary.TopSites, 2)
	assert.Equal(t, TopSite{Name: "Site A", Slug: "site-a", Views: 100, Percentage: 67}, summary.TopSites[0])
	assert.Equal(t, TopSite{Name: "Site B", Slug: "site-b", Views: 50, Percentage: 33}, summary.TopSites[1])
	require.Len(t, summary.RecentVisits, 4)
	assert.Equal(t, "b-10", summary.RecentVisits[0].ID)
}

func TestAggregateEmpty(t *testing.T) {
	summary := Aggregate(nil, nil)

	assert.Equal(t, int64(0), summary.TotalViews)
	assert.Equal(t, 0, summary.TotalSites)
	assert.Equal(t, 0, summary.UniqueVisitors)
	assert.Equal(t, "0s", summary.AvgSessionDuration)
	assert.NotNil(t, summary.TopSites)
	assert.Empty(t, summary.TopSites)
	assert.NotNil(t, summary.DeviceData)
	assert.NotNil(t, summary.ReferrerData)
	assert.NotNil(t, summary.RecentVisits)
}

func TestAggregateSitesWithoutViews(t *testing.T) {
	siteList := []sites.Site{{ID: "a", Title: "A", Slug: "aaa"}, {ID: "b", Title: "B", Slug: "bbb"}}

	summary := Aggregate(siteList, nil)

	require.Len(t, summary.TopSites, 2)
	for _, top := range summary.TopSites {
		assert.Equal(t, 0, top.Percentage)
	}
}

func TestTopSites(t *testing.T) {
	var siteList []sites.Site
	var total int64
	for i, views := range []int64{5, 80, 13, 40, 0, 99, 7} {
		siteList = append(siteList, sites.Site{ID: fmt.Sprint(i), Title: fmt.Sprint("site ", i), Views: views})
		total += views
	}

	summary := Aggregate(siteList, nil)

	require.Len(t, summary.TopSites, TopSitesLimit)
	sum := 0
	for i, top := range summary.TopSites {
		if i > 0 {
			assert.GreaterOrEqual(t, summary.TopSites[i-1].Views, top.Views)
		}
		sum += top.Percentage
	}
	assert.Equal(t, []int64{99, 80, 40, 13, 7}, []int64{
		summary.TopSites[0].Views, summary.TopSites[1].Views, summary.TopSites[2].Views,
		summary.TopSites[3].Views, summary.TopSites[4].Views,
	})
	assert.LessOrEqual(t, sum, 100)
	assert.Equal(t, total, summary.TotalViews)
}

func TestAggregateDoesNotReorderInput(t *testing.T) {
	siteList := []sites.Site{{ID: "a", Views: 1}, {ID: "b", Views: 2}}
	visitList := []visits.Visit{visitAt("a", 1), visitAt("a", 2)}

	Aggregate(siteList, visitList)

	assert.Equal(t, "a", siteList[0].ID)
	assert.Equal(t, "a-1", visitList[0].ID)
}

func TestUniqueVisitors(t *testing.T) {
	tests := []struct {
		name       string
		visitorIDs []string
		expected   int
	}{
		{name: "distinct ids", visitorIDs: []string{"v1", "v2", "v3"}, expected: 3},
		{name: "repeat visitor", visitorIDs: []string{"v1", "v1", "v2"}, expected: 2},
		{name: "blank ids share one bucket", visitorIDs: []string{"", "", " ", "v1"}, expected: 2},
		{name: "no visits", visitorIDs: nil, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visitList []visits.Visit
			for _, id := range tt.visitorIDs {
				visitList = append(visitList, visits.Visit{VisitorID: id})
			}

			summary := Aggregate(nil, visitList)

			assert.Equal(t, tt.expected, summary.UniqueVisitors)
			assert.LessOrEqual(t, summary.UniqueVisitors, len(visitList))
		})
	}
}

func TestAverageSessionDuration(t *testing.T) {
	tests := []struct {
		name      string
		durations []int
		expected  string
	}{
		{name: "zero durations excluded", durations: []int{0, 0, 120}, expected: "2m 0s"},
		{name: "under a minute", durations: []int{10, 20}, expected: "15s"},
		{name: "rounds seconds half up", durations: []int{1, 2}, expected: "2s"},
		{name: "minutes and seconds", durations: []int{61, 124}, expected: "1m 33s"},
		{name: "all zero", durations: []int{0, 0}, expected: "0s"},
		{name: "no visits", durations: nil, expected: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visitList []visits.Visit
			for _, d := range tt.durations {
				visitList = append(visitList, visits.Visit{SessionDuration: d})
			}

			assert.Equal(t, tt.expected, Aggregate(nil, visitList).AvgSessionDuration)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "59s", FormatDuration(59.4))
	assert.Equal(t, "1m 0s", FormatDuration(60))
	assert.Equal(t, "1m 30s", FormatDuration(90))
	assert.Equal(t, "2m 5s", FormatDuration(124.5))
	assert.Equal(t, "61m 1s", FormatDuration(3661))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, Percentage(5, 0))
	assert.Equal(t, 67, Percentage(100, 150))
	assert.Equal(t, 33, Percentage(50, 150))
	assert.Equal(t, 50, Percentage(1, 2))
	assert.Equal(t, 13, Percentage(1, 8)) // 12.5 rounds up
	assert.Equal(t, 100, Percentage(7, 7))
}

func TestDeviceData(t *testing.T) {
	devices := []string{"desktop", "mobile", "mobile", "tablet", "", "desktop", "mobile"}
	var visitList []visits.Visit
	for _, d := range devices {
		visitList = append(visitList, visits.Visit{Device: d})
	}

	summary := Aggregate(nil, visitList)

	require.Len(t, summary.DeviceData, 4)
	assert.Equal(t, DeviceBreakdown{Type: "Mobile", Count: 3, Percentage: 43}, summary.DeviceData[0])
	assert.Equal(t, DeviceBreakdown{Type: "Desktop", Count: 2, Percentage: 29}, summary.DeviceData[1])
	assert.Equal(t, DeviceBreakdown{Type: "Tablet", Count: 1, Percentage: 14}, summary.DeviceData[2])
	assert.Equal(t, DeviceBreakdown{Type: "Unknown", Count: 1, Percentage: 14}, summary.DeviceData[3])

	var countSum int64
	percentSum := 0
	for _, d := range summary.DeviceData {
		countSum += d.Count
		percentSum += d.Percentage
	}
	assert.Equal(t, int64(len(visitList)), countSum)
	assert.InDelta(t, 100, percentSum, float64(len(summary.DeviceData)))
}

func TestReferrerData(t *testing.T) {
	referrers := []string{
		"direct", "", "https://www.google.com/search?q=x", "https://google.com",
		"https://news.ycombinator.com/item", "not a url", "https://t.co/abc",
		"https://github.com", "https://www.github.com/x", "https://GitHub.com/y",
		"https://example.org",
	}
	var visitList []visits.Visit
	for _, r := range referrers {
		visitList = append(visitList, visits.Visit{Referrer: r})
	}

	summary := Aggregate(nil, visitList)

	require.Len(t, summary.ReferrerData, TopReferrersLimit)
	assert.Equal(t, ReferrerBreakdown{Source: "github.com", Count: 3, Percentage: 27}, summary.ReferrerData[0])
	assert.Equal(t, ReferrerBreakdown{Source: "Direct", Count: 2, Percentage: 18}, summary.ReferrerData[1])
	assert.Equal(t, ReferrerBreakdown{Source: "google.com", Count: 2, Percentage: 18}, summary.ReferrerData[2])
	for i := 1; i < len(summary.ReferrerData); i++ {
		assert.GreaterOrEqual(t, summary.ReferrerData[i-1].Count, summary.ReferrerData[i].Count)
	}
}

func TestNormalizeReferrer(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "https://www.example.com/page", expected: "example.com"},
		{input: "", expected: "Direct"},
		{input: "direct", expected: "Direct"},
		{input: "not a url", expected: "Unknown"},
		{input: "example.com/page", expected: "Unknown"},
		{input: "http://WWW.Example.COM:8080/x", expected: "example.com"},
		{input: "https://sub.www.example.com", expected: "sub.www.example.com"},
		{input: "mailto:someone@example.com", expected: "Unknown"},
		{input: "android-app://com.google.android.gm/", expected: "com.google.android.gm"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeReferrer(tt.input))
		})
	}
}

func TestRecentVisits(t *testing.T) {
	var visitList []visits.Visit
	for i := 0; i < 15; i++ {
		visitList = append(visitList, visitAt("a", (i*7)%15))
	}

	summary := Aggregate(nil, visitList)

	require.Len(t, summary.RecentVisits, RecentVisitsLimit)
	assert.Equal(t, baseTime.Add(14*time.Minute), summary.RecentVisits[0].VisitedAt)
	for i := 1; i < len(summary.RecentVisits); i++ {
		assert.False(t, summary.RecentVisits[i].VisitedAt.After(summary.RecentVisits[i-1].VisitedAt))
	}
	assert.Equal(t, baseTime.Add(5*time.Minute), summary.RecentVisits[9].VisitedAt)
}
