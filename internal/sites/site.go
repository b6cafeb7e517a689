package sites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"sitepulse/internal/apperr"
)

// Status is the publication state of a site
type Status string

// Site statuses
const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDraft    Status = "draft"
)

// MinSlugLength is the shortest slug accepted for a site.
const MinSlugLength = 3

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Site represents a user-published HTML/CSS/JS bundle addressable by slug
type Site struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"index;not null" json:"userId"`
	Title       string    `gorm:"not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description,omitempty"`
	HTML        string    `json:"html"`
	CSS         string    `json:"css"`
	JS          string    `json:"js"`
	Views       int64     `gorm:"not null;default:0" json:"views"`
	Status      Status    `gorm:"size:16;not null;default:'active'" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an id and the default status
func (s *Site) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	return nil
}

// ValidStatus reports whether status is one of the known site statuses
func ValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusInactive, StatusDraft:
		return true
	}
	return false
}

// ValidateSlug checks that a slug is URL-safe: lowercase alphanumerics and
// hyphens, at least MinSlugLength characters.
func ValidateSlug(slug string) error {
	if len(slug) < MinSlugLength {
		return apperr.NewValidationError("slug", fmt.Sprintf("must be at least %d characters", MinSlugLength))
	}
	if !slugPattern.MatchString(slug) {
		return apperr.NewValidationError("slug", "may only contain lowercase letters, numbers and hyphens")
	}
	return nil
}

// Store reads and updates sites through a lazily acquired connection
type Store struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
}

// NewStore creates a site store backed by the given connection manager
func NewStore(dbManager cartridge.DBManager, logger *slog.Logger) *Store {
	return &Store{dbManager: dbManager, logger: logger}
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	db := s.dbManager.GetConnection()
	if db == nil {
		return nil, gorm.ErrInvalidDB
	}
	return db.WithContext(ctx), nil
}

// SitesByUser returns every site owned by userID, newest first
func (s *Store) SitesByUser(ctx context.Context, userID string) ([]Site, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, apperr.NewStorageError("list sites", err)
	}

	var result []Site
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&result).Error; err != nil {
		return nil, apperr.NewStorageError("list sites", err)
	}
	return result, nil
}

// SiteByID returns the site with the given id or a NotFoundError
func (s *Store) SiteByID(ctx context.Context, id string) (*Site, error) {
	return s.first(ctx, "id = ?", id)
}

// SiteBySlug returns the site with the given slug or a NotFoundError
func (s *Store) SiteBySlug(ctx context.Context, slug string) (*Site, error) {
	return s.first(ctx, "slug = ?", slug)
}

func (s *Store) first(ctx context.Context, query string, value string) (*Site, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, apperr.NewStorageError("get site", err)
	}

	var site Site
	if err := db.Where(query, value).First(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("site", value)
		}
		return nil, apperr.NewStorageError("get site", err)
	}
	return &site, nil
}

// IsSlugAvailable reports whether no site currently uses slug
func (s *Store) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, apperr.NewStorageError("check slug", err)
	}

	var count int64
	if err := db.Model(&Site{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, apperr.NewStorageError("check slug", err)
	}
	return count == 0, nil
}

// Create validates and persists a new site. The slug must be valid and unused.
func (s *Store) Create(ctx context.Context, site *Site) error {
	site.Slug = strings.ToLower(strings.TrimSpace(site.Slug))
	if strings.TrimSpace(site.UserID) == "" {
		return apperr.NewValidationError("userId", "is required")
	}
	if strings.TrimSpace(site.Title) == "" {
		return apperr.NewValidationError("title", "is required")
	}
	if err := ValidateSlug(site.Slug); err != nil {
		return err
	}
	if site.Status != "" && !ValidStatus(site.Status) {
		return apperr.NewValidationError("status", fmt.Sprintf("unknown status %q", site.Status))
	}

	available, err := s.IsSlugAvailable(ctx, site.Slug)
	if err != nil {
		return err
	}
	if !available {
		return apperr.NewValidationError("slug", "is already taken")
	}

	db, err := s.conn(ctx)
	if err != nil {
		return apperr.NewStorageError("create site", err)
	}
	if err := sqlite.PerformWrite(s.logger, db, func(tx *gorm.DB) error {
		return tx.Create(site).Error
	}); err != nil {
		return apperr.NewStorageError("create site", err)
	}
	return nil
}

// IncrementViews bumps the view counter of a site by one and returns the
// updated record. The counter is independent of recorded visits.
func (s *Store) IncrementViews(ctx context.Context, id string) (*Site, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, apperr.NewStorageError("increment views", err)
	}

	var affected int64
	err = sqlite.PerformWrite(s.logger, db, func(tx *gorm.DB) error {
		result := tx.Model(&Site{}).Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return nil, apperr.NewStorageError("increment views", err)
	}
	if affected == 0 {
		return nil, apperr.NewNotFoundError("site", id)
	}

	return s.SiteByID(ctx, id)
}
