package http

import (
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/metrics"
)

var metricsHandler = adaptor.HTTPHandler(metrics.Handler())

// MetricsIndexAction serves the Prometheus scrape endpoint
func MetricsIndexAction(ctx *cartridge.Context) error {
	return metricsHandler(ctx.Ctx)
}
