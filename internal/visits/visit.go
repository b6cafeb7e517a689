package visits

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device classes assigned by ClassifyDevice
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// DirectReferrer is stored when the browser supplied no referrer.
const DirectReferrer = "direct"

// UnknownIP is stored when no forwarding header identified the client.
const UnknownIP = "unknown"

// Visit is one recorded page load of a published site. Visits are
// immutable once recorded.
type Visit struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	SiteID          string    `gorm:"not null;size:36;index:idx_visits_site_visited,priority:1" json:"siteId"`
	UserID          string    `gorm:"not null;index" json:"userId"`
	VisitorID       string    `json:"visitorId"`
	IPAddress       string    `json:"ipAddress"`
	UserAgent       string    `json:"userAgent"`
	Referrer        string    `json:"referrer"`
	Device          string    `gorm:"size:16" json:"device"`
	Country         string    `gorm:"size:2" json:"country,omitempty"`
	SessionDuration int       `gorm:"not null;default:0" json:"sessionDuration"`
	VisitedAt       time.Time `gorm:"not null;index:idx_visits_site_visited,priority:2" json:"visitedAt"`
}

// BeforeCreate assigns the id and timestamp of a new visit
func (v *Visit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now().UTC()
	} else {
		v.VisitedAt = v.VisitedAt.UTC()
	}
	return nil
}

// TimeRange optionally bounds a visit query. The range only applies when
// both ends are set; a half-open range returns the full history.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// Bounded reports whether both ends of the range are set
func (r TimeRange) Bounded() bool {
	return r.Start != nil && r.End != nil
}
