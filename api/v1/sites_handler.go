package v1

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/apperr"
	"sitepulse/internal/http/middleware"
	"sitepulse/internal/metrics"
	"sitepulse/internal/sites"
)

// GetSiteHandler looks a published site up by slug. With incrementViews=true
// the view counter is bumped atomically and the updated site is returned.
func GetSiteHandler(ctx *cartridge.Context) error {
	slug := ctx.Query("slug")
	if slug == "" {
		return respondError(ctx, apperr.NewValidationError("slug", "is required"))
	}

	store := sites.NewStore(ctx.DBManager, ctx.Logger)
	site, err := store.SiteBySlug(ctx.UserContext(), slug)
	if err != nil {
		return respondError(ctx, err)
	}

	if ctx.QueryBool("incrementViews") {
		site, err = store.IncrementViews(ctx.UserContext(), site.ID)
		if err != nil {
			return respondError(ctx, err)
		}
		metrics.Default().SiteViewIncrements.Inc()
		ctx.Logger.Debug("Incremented site views",
			slog.String("site_id", site.ID),
			slog.Int64("views", site.Views))
	}

	return ctx.JSON(site)
}

// ListSitesHandler returns the authenticated user's sites, newest first.
func ListSitesHandler(ctx *cartridge.Context) error {
	userID := middleware.UserID(ctx.Ctx)
	if userID == "" {
		return respondError(ctx, apperr.ErrUnauthenticated)
	}

	siteList, err := sites.NewStore(ctx.DBManager, ctx.Logger).SitesByUser(ctx.UserContext(), userID)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(siteList)
}

// SlugAvailabilityHandler reports whether a slug is well-formed and unused.
func SlugAvailabilityHandler(ctx *cartridge.Context) error {
	slug := ctx.Query("slug")
	if err := sites.ValidateSlug(slug); err != nil {
		return respondError(ctx, err)
	}

	available, err := sites.NewStore(ctx.DBManager, ctx.Logger).IsSlugAvailable(ctx.UserContext(), slug)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"slug": slug, "available": available})
}
