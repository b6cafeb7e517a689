package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"sitepulse/internal/pkg/geoip"
)

const healthPingTimeout = 2 * time.Second

// HealthStatus represents the health check response
type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	DBStatus    string    `json:"db_status"`
	GeoIPStatus string    `json:"geoip_status"`
}

// HealthIndexAction handles the health check endpoint
func HealthIndexAction(ctx *cartridge.Context) error {
	dbStatus := "ok"

	db := ctx.DBManager.GetConnection()
	if db == nil {
		dbStatus = "error"
		ctx.Logger.Error("Database connection unavailable")
	} else {
		sqlDB, err := db.DB()
		if err != nil {
			dbStatus = "error"
			ctx.Logger.Error("Database connection error", slog.Any("error", err))
		} else {
			pingCtx, cancel := context.WithTimeout(ctx.UserContext(), healthPingTimeout)
			defer cancel()
			if err := sqlDB.PingContext(pingCtx); err != nil {
				dbStatus = "error"
				ctx.Logger.Error("Database ping failed", slog.Any("error", err))
			}
		}
	}

	// GeoIP is optional; a missing database only disables country lookup.
	geoStatus := "disabled"
	if geoip.GetGeoDB() != nil {
		geoStatus = "ok"
	}

	health := HealthStatus{
		Status:      "ok",
		Timestamp:   time.Now(),
		DBStatus:    dbStatus,
		GeoIPStatus: geoStatus,
	}

	if dbStatus != "ok" {
		health.Status = "degraded"
	}

	return ctx.JSON(health)
}
