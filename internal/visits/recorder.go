package visits

import (
	"context"
	"log/slog"
	"strings"

	"sitepulse/internal/apperr"
	"sitepulse/internal/sites"
	"sitepulse/internal/visitors"
)

// RecordInput is a raw visit event plus the request-derived client address
type RecordInput struct {
	SiteID          string
	UserID          string
	VisitorID       string
	Referrer        string
	UserAgent       string
	Country         string
	SessionDuration int
	IPAddress       string
}

// SiteLookup resolves the site a visit refers to
type SiteLookup interface {
	SiteByID(ctx context.Context, id string) (*sites.Site, error)
}

// CountryResolver maps a client address to an ISO alpha-2 code, or "".
type CountryResolver func(ipAddress string) string

// Recorder validates and persists single visit events
type Recorder struct {
	store         *Store
	sites         SiteLookup
	logger        *slog.Logger
	countryFromIP CountryResolver
}

// NewRecorder creates a recorder. countryFromIP may be nil, in which case the
// country stays empty unless the client supplied one.
func NewRecorder(store *Store, sites SiteLookup, logger *slog.Logger, countryFromIP CountryResolver) *Recorder {
	return &Recorder{
		store:         store,
		sites:         sites,
		logger:        logger,
		countryFromIP: countryFromIP,
	}
}

// Record validates in and persists exactly one visit. It never touches the
// site's view counter.
func (r *Recorder) Record(ctx context.Context, in RecordInput) (*Visit, error) {
	visit, err := r.build(in)
	if err != nil {
		return nil, err
	}

	site, err := r.sites.SiteByID(ctx, visit.SiteID)
	if err != nil {
		return nil, err
	}
	if site.UserID != visit.UserID {
		return nil, apperr.NewValidationError("userId", "does not match the owner of the site")
	}

	if visit.Country == "" && r.countryFromIP != nil {
		visit.Country = r.countryFromIP(visit.IPAddress)
	}

	if err := r.store.Insert(ctx, visit); err != nil {
		return nil, err
	}

	r.logger.Debug("Recorded visit",
		slog.String("visit_id", visit.ID),
		slog.String("site_id", visit.SiteID),
		slog.String("device", visit.Device))
	return visit, nil
}

func (r *Recorder) build(in RecordInput) (*Visit, error) {
	siteID := strings.TrimSpace(in.SiteID)
	if siteID == "" {
		return nil, apperr.NewValidationError("siteId", "is required")
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, apperr.NewValidationError("userId", "is required")
	}
	if in.SessionDuration < 0 {
		return nil, apperr.NewValidationError("sessionDuration", "must not be negative")
	}

	visitorID := visitors.NewID()
	if strings.TrimSpace(in.VisitorID) != "" {
		id, ok := visitors.NormalizeID(in.VisitorID)
		if !ok {
			return nil, apperr.NewValidationError("visitorId", "is malformed")
		}
		visitorID = id
	}

	var country string
	if strings.TrimSpace(in.Country) != "" {
		code, ok := NormalizeCountry(in.Country)
		if !ok {
			return nil, apperr.NewValidationError("country", "is not a known country")
		}
		country = code
	}

	referrer := strings.TrimSpace(in.Referrer)
	if referrer == "" {
		referrer = DirectReferrer
	}

	ip := strings.TrimSpace(in.IPAddress)
	if ip == "" {
		ip = UnknownIP
	}

	return &Visit{
		SiteID:          siteID,
		UserID:          userID,
		VisitorID:       visitorID,
		IPAddress:       ip,
		UserAgent:       in.UserAgent,
		Referrer:        referrer,
		Device:          ClassifyDevice(in.UserAgent),
		Country:         country,
		SessionDuration: in.SessionDuration,
	}, nil
}
