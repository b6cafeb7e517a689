package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "sitepulse/api/v1"
	"sitepulse/internal/auth"
	"sitepulse/internal/config"
	"sitepulse/internal/http"
	"sitepulse/internal/http/middleware"
	"sitepulse/internal/metrics"
)

// publicCORSConfig returns the standard CORS configuration for public endpoints.
// Visit ingestion is called from every tracked site's origin.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()
	logger := srv.GetLogger()

	srv.App().Use(middleware.RequestMetrics(metrics.Default()))

	// Rate limiting only applies in production; it would interfere with tests.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(cfg.GetIngestRateLimit()),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// ============================================
	// ROUTE CONFIGURATIONS
	// ============================================

	// Visit ingestion: rate limiting + CORS. CORS runs first so 403
	// responses from the global Sec-Fetch-Site check carry CORS headers.
	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	// Read endpoints are called server-to-server and send no Sec-Fetch-Site.
	readAPIConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         publicCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
	}

	verifier := auth.NewVerifier(cfg.GetJWTSecret(), cfg.JWTIssuer)
	authenticatedConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         publicCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{middleware.BearerAuth(verifier, logger)},
	}

	opsConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
	}

	// === OPERATIONS ===
	srv.Get("/_health", http.HealthIndexAction, opsConfig)
	srv.Head("/_health", http.HealthIndexAction, opsConfig)
	srv.Get("/metrics", http.MetricsIndexAction, opsConfig)

	// === VISITS ===
	srv.Post("/visits", v1.CreateVisitHandler, publicAPIConfig)
	srv.Options("/visits", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)
	srv.Get("/visits", v1.ListVisitsHandler, readAPIConfig)

	// === SITES ===
	srv.Get("/site", v1.GetSiteHandler, readAPIConfig)
	srv.Get("/sites/slug-available", v1.SlugAvailabilityHandler, readAPIConfig)
	srv.Get("/sites", v1.ListSitesHandler, authenticatedConfig)

	// === ANALYTICS ===
	srv.Get("/analytics", v1.GetAnalyticsHandler, authenticatedConfig)
}
