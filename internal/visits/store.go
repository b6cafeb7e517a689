package visits

import (
	"context"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"sitepulse/internal/apperr"
)

// Store persists and queries visits through a lazily acquired connection.
// Every read is bounded by the configured fetch timeout.
type Store struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
	timeout   time.Duration
}

// NewStore creates a visit store. A zero timeout leaves reads bounded only by
// the caller's context.
func NewStore(dbManager cartridge.DBManager, logger *slog.Logger, timeout time.Duration) *Store {
	return &Store{dbManager: dbManager, logger: logger, timeout: timeout}
}

func (s *Store) conn() (*gorm.DB, error) {
	db := s.dbManager.GetConnection()
	if db == nil {
		return nil, gorm.ErrInvalidDB
	}
	return db, nil
}

// Insert persists a new visit
func (s *Store) Insert(ctx context.Context, visit *Visit) error {
	db, err := s.conn()
	if err != nil {
		return apperr.NewStorageError("insert visit", err)
	}

	err = sqlite.PerformWrite(s.logger, db.WithContext(ctx), func(tx *gorm.DB) error {
		return tx.Create(visit).Error
	})
	if err != nil {
		return apperr.NewStorageError("insert visit", err)
	}
	return nil
}

// SiteVisits returns the visits of one site, newest first. When r is bounded
// only visits with visitedAt in [start, end] are returned, both ends inclusive.
// Visits sharing a timestamp come back in no particular order.
func (s *Store) SiteVisits(ctx context.Context, siteID string, r TimeRange) ([]Visit, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	db, err := s.conn()
	if err != nil {
		return nil, apperr.NewStorageError("list visits", err)
	}

	query := db.WithContext(ctx).Where("site_id = ?", siteID)
	if r.Bounded() {
		query = query.Where("visited_at BETWEEN ? AND ?", r.Start.UTC(), r.End.UTC())
	}

	var result []Visit
	if err := query.Order("visited_at DESC").Find(&result).Error; err != nil {
		return nil, apperr.NewStorageError("list visits", err)
	}
	if result == nil {
		result = []Visit{}
	}
	return result, nil
}

// GetVisits is the soft-failing form of SiteVisits: a storage failure is
// logged and yields an empty sequence.
func (s *Store) GetVisits(ctx context.Context, siteID string, r TimeRange) []Visit {
	result, err := s.SiteVisits(ctx, siteID, r)
	if err != nil {
		s.logger.Warn("Failed to load visits, returning empty result",
			slog.String("site_id", siteID),
			slog.Any("error", err))
		return []Visit{}
	}
	return result
}
