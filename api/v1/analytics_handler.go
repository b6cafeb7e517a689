package v1

import (
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/analytics"
	"sitepulse/internal/config"
	"sitepulse/internal/http/middleware"
	"sitepulse/internal/sites"
	"sitepulse/internal/timeframe"
)

// GetAnalyticsHandler returns the analytics summary for the authenticated
// user, optionally narrowed to one of their sites and a time window.
func GetAnalyticsHandler(ctx *cartridge.Context) error {
	cfg := config.GetConfig()

	r, err := timeframe.ParseRange(timeframe.RangeParams{
		StartDate: ctx.Query("startDate"),
		EndDate:   ctx.Query("endDate"),
		Tz:        ctx.Query("tz"),
	})
	if err != nil {
		return respondError(ctx, err)
	}

	service := analytics.NewService(
		sites.NewStore(ctx.DBManager, ctx.Logger),
		newVisitStore(ctx),
		ctx.Logger,
		cfg.GetAnalyticsWorkers(),
	)

	summary, err := service.GetAnalytics(ctx.UserContext(), analytics.Query{
		UserID: middleware.UserID(ctx.Ctx),
		SiteID: ctx.Query("siteId"),
		Range:  r,
	})
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(summary)
}
