package v1

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/apperr"
	"sitepulse/internal/config"
	"sitepulse/internal/metrics"
	"sitepulse/internal/pkg/geoip"
	"sitepulse/internal/sites"
	"sitepulse/internal/timeframe"
	"sitepulse/internal/visits"
)

const errInvalidRequest = "Invalid request"

// CreateVisitParams is the body accepted by POST /visits
type CreateVisitParams struct {
	SiteID          string `json:"siteId"`
	UserID          string `json:"userId"`
	VisitorID       string `json:"visitorId"`
	Referrer        string `json:"referrer"`
	UserAgent       string `json:"userAgent"`
	Country         string `json:"country"`
	SessionDuration int    `json:"sessionDuration"`
}

func newVisitStore(ctx *cartridge.Context) *visits.Store {
	return visits.NewStore(ctx.DBManager, ctx.Logger, config.GetConfig().GetQueryTimeout())
}

// CreateVisitHandler records a single visit. The client address comes from
// the forwarding headers and the user agent falls back to the request header.
func CreateVisitHandler(ctx *cartridge.Context) error {
	m := metrics.Default()

	var params CreateVisitParams
	if err := ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse visit body", slog.Any("error", err))
		m.VisitRecordFailures.WithLabelValues(apperr.CodeValidation).Inc()
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": errInvalidRequest,
			"code":  apperr.CodeValidation,
		})
	}

	userAgent := params.UserAgent
	if userAgent == "" {
		userAgent = ctx.Get("User-Agent")
	}

	recorder := visits.NewRecorder(
		newVisitStore(ctx),
		sites.NewStore(ctx.DBManager, ctx.Logger),
		ctx.Logger,
		geoip.CountryCode,
	)

	visit, err := recorder.Record(ctx.UserContext(), visits.RecordInput{
		SiteID:          params.SiteID,
		UserID:          params.UserID,
		VisitorID:       params.VisitorID,
		Referrer:        params.Referrer,
		UserAgent:       userAgent,
		Country:         params.Country,
		SessionDuration: params.SessionDuration,
		IPAddress:       getClientIP(ctx.Ctx),
	})
	if err != nil {
		m.VisitRecordFailures.WithLabelValues(apperr.Code(err)).Inc()
		return respondError(ctx, err)
	}

	m.VisitsRecorded.Inc()
	return ctx.Status(http.StatusCreated).JSON(visit)
}

// ListVisitsHandler returns the visits of one site, newest first. Storage
// failures degrade to an empty list.
func ListVisitsHandler(ctx *cartridge.Context) error {
	siteID := ctx.Query("siteId")
	if siteID == "" {
		return respondError(ctx, apperr.NewValidationError("siteId", "is required"))
	}

	r, err := timeframe.ParseRange(timeframe.RangeParams{
		StartDate: ctx.Query("startDate"),
		EndDate:   ctx.Query("endDate"),
		Tz:        ctx.Query("tz"),
	})
	if err != nil {
		return respondError(ctx, err)
	}

	result := newVisitStore(ctx).GetVisits(ctx.UserContext(), siteID, r)
	return ctx.JSON(result)
}
