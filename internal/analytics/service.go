package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sitepulse/internal/apperr"
	"sitepulse/internal/metrics"
	"sitepulse/internal/pkg/async"
	"sitepulse/internal/sites"
	"sitepulse/internal/visits"
)

// Scope labels used in metrics
const (
	ScopeUser = "user"
	ScopeSite = "site"
)

// SiteSource loads the sites in scope of a request
type SiteSource interface {
	SitesByUser(ctx context.Context, userID string) ([]sites.Site, error)
	SiteByID(ctx context.Context, id string) (*sites.Site, error)
}

// VisitSource loads the visits of one site
type VisitSource interface {
	SiteVisits(ctx context.Context, siteID string, r visits.TimeRange) ([]visits.Visit, error)
}

// Query selects the data an analytics summary is computed over
type Query struct {
	UserID string
	SiteID string
	Range  visits.TimeRange
}

// Service loads sites and their visits and reduces them with Aggregate
type Service struct {
	sites   SiteSource
	visits  VisitSource
	pool    *async.Pool[[]visits.Visit]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService creates an analytics service fetching at most workers sites'
// visits concurrently
func NewService(siteSource SiteSource, visitSource VisitSource, logger *slog.Logger, workers int) *Service {
	return &Service{
		sites:   siteSource,
		visits:  visitSource,
		pool:    async.NewPool[[]visits.Visit](workers),
		logger:  logger,
		metrics: metrics.Default(),
	}
}

// GetAnalytics computes the summary for every site of q.UserID, or for the
// single site q.SiteID when set. A site whose visits cannot be loaded
// contributes no visits; the request itself still succeeds.
func (s *Service) GetAnalytics(ctx context.Context, q Query) (*Summary, error) {
	start := time.Now()
	scope := ScopeUser
	if q.SiteID != "" {
		scope = ScopeSite
	}

	summary, err := s.getAnalytics(ctx, q)
	if err != nil {
		s.metrics.AnalyticsRequests.WithLabelValues(scope, apperr.Code(err)).Inc()
		return nil, err
	}

	s.metrics.AnalyticsRequests.WithLabelValues(scope, "ok").Inc()
	s.metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	return summary, nil
}

func (s *Service) getAnalytics(ctx context.Context, q Query) (*Summary, error) {
	if q.UserID == "" {
		return nil, apperr.ErrUnauthenticated
	}

	siteList, err := s.loadSites(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(siteList) == 0 {
		return EmptySummary(), nil
	}

	merged := s.loadVisits(ctx, siteList, q.Range)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.metrics.VisitsAggregated.Observe(float64(len(merged)))
	return s.aggregate(siteList, merged)
}

func (s *Service) loadSites(ctx context.Context, q Query) ([]sites.Site, error) {
	if q.SiteID == "" {
		return s.sites.SitesByUser(ctx, q.UserID)
	}

	site, err := s.sites.SiteByID(ctx, q.SiteID)
	if err != nil {
		return nil, err
	}
	if site.UserID != q.UserID {
		return nil, apperr.NewAuthorizationError("site", site.ID, q.UserID)
	}
	return []sites.Site{*site}, nil
}

// loadVisits fans out one fetch per site and merges the results in site
// order. Failed fetches are logged and skipped.
func (s *Service) loadVisits(ctx context.Context, siteList []sites.Site, r visits.TimeRange) []visits.Visit {
	tasks := make([]async.Task[[]visits.Visit], len(siteList))
	for i, site := range siteList {
		tasks[i] = async.Task[[]visits.Visit]{
			Name: site.ID,
			Execute: func(ctx context.Context) ([]visits.Visit, error) {
				return s.visits.SiteVisits(ctx, site.ID, r)
			},
		}
	}

	results := s.pool.Execute(ctx, tasks)

	var merged []visits.Visit
	for _, site := range siteList {
		result := results[site.ID]
		if result.Err != nil {
			failure := &apperr.UpstreamPartialFailure{SiteID: site.ID, Err: result.Err}
			s.metrics.PartialFetchFailure.Inc()
			s.logger.Warn("Skipping site in analytics aggregation",
				slog.String("site_id", site.ID),
				slog.Any("error", failure))
			continue
		}
		merged = append(merged, result.Data...)
	}
	return merged
}

func (s *Service) aggregate(siteList []sites.Site, merged []visits.Visit) (summary *Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Aggregation failed", slog.Any("panic", r))
			summary, err = nil, fmt.Errorf("aggregation failed: %v", r)
		}
	}()
	return Aggregate(siteList, merged), nil
}
