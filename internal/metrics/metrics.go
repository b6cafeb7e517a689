// Package metrics defines the Prometheus collectors for visit ingestion,
// analytics aggregation and the HTTP layer, and exposes a scrape handler.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	VisitsRecorded      prometheus.Counter
	VisitRecordFailures *prometheus.CounterVec
	SiteViewIncrements  prometheus.Counter
	AnalyticsRequests   *prometheus.CounterVec
	PartialFetchFailure prometheus.Counter
	AggregationDuration prometheus.Histogram
	VisitsAggregated    prometheus.Histogram
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the process-wide collectors, registering them on first use.
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepulse_http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitepulse_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		VisitsRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sitepulse_visits_recorded_total",
				Help: "Total visits persisted.",
			},
		),
		VisitRecordFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepulse_visit_record_failures_total",
				Help: "Visits rejected or lost, by error code.",
			},
			[]string{"code"},
		),
		SiteViewIncrements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sitepulse_site_view_increments_total",
				Help: "Total site view counter increments.",
			},
		),
		AnalyticsRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepulse_analytics_requests_total",
				Help: "Analytics summaries computed, by scope and outcome.",
			},
			[]string{"scope", "outcome"},
		),
		PartialFetchFailure: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sitepulse_analytics_partial_failures_total",
				Help: "Per-site visit fetches that failed during aggregation.",
			},
		),
		AggregationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sitepulse_analytics_duration_seconds",
				Help:    "Time to load and aggregate an analytics summary.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		VisitsAggregated: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sitepulse_analytics_visits_aggregated",
				Help:    "Number of visits reduced per analytics summary.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.VisitsRecorded,
		m.VisitRecordFailures,
		m.SiteViewIncrements,
		m.AnalyticsRequests,
		m.PartialFetchFailure,
		m.AggregationDuration,
		m.VisitsAggregated,
	)

	return m
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	Default()
	return promhttp.Handler()
}
