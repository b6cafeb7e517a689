package visits_test

import (
	"context"
	"errors"
	"testing"
	"time"

	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal/apperr"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/visits"
)

func visitorIDs(list []visits.Visit) []string {
	ids := make([]string, 0, len(list))
	for _, v := range list {
		ids = append(ids, v.VisitorID)
	}
	return ids
}

// closedDBManager returns a manager whose connection fails every query
func closedDBManager(t *testing.T) *ctestsupport.TestDBManager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	return ctestsupport.NewTestDBManager(db)
}

func TestStoreSiteVisits(t *testing.T) {
	dbManager, log := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	store := visits.NewStore(dbManager, log, time.Second)
	ctx := context.Background()

	site := testsupport.CreateTestSite(t, db, "user_1", "docs", 0)
	other := testsupport.CreateTestSite(t, db, "user_1", "other", 0)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)
	testsupport.CreateTestVisit(t, db, site, "before", start.Add(-time.Microsecond))
	testsupport.CreateTestVisit(t, db, site, "at-start", start)
	testsupport.CreateTestVisit(t, db, site, "middle", start.Add(10*24*time.Hour))
	testsupport.CreateTestVisit(t, db, site, "at-end", end)
	testsupport.CreateTestVisit(t, db, site, "after", end.Add(time.Second))
	testsupport.CreateTestVisit(t, db, other, "other-site", start.Add(time.Hour))

	t.Run("unbounded returns full history newest first", func(t *testing.T) {
		list, err := store.SiteVisits(ctx, site.ID, visits.TimeRange{})
		require.NoError(t, err)
		assert.Equal(t, []string{"after", "at-end", "middle", "at-start", "before"}, visitorIDs(list))
	})

	t.Run("bounded range is inclusive", func(t *testing.T) {
		list, err := store.SiteVisits(ctx, site.ID, visits.TimeRange{Start: &start, End: &end})
		require.NoError(t, err)
		assert.Equal(t, []string{"at-end", "middle", "at-start"}, visitorIDs(list))
	})

	t.Run("bounds in another zone are compared in UTC", func(t *testing.T) {
		madrid := time.FixedZone("CEST", 2*60*60)
		localStart := start.In(madrid)
		localEnd := start.Add(24 * time.Hour).In(madrid)

		list, err := store.SiteVisits(ctx, site.ID, visits.TimeRange{Start: &localStart, End: &localEnd})
		require.NoError(t, err)
		assert.Equal(t, []string{"at-start"}, visitorIDs(list))
	})

	t.Run("half-open range is ignored", func(t *testing.T) {
		list, err := store.SiteVisits(ctx, site.ID, visits.TimeRange{Start: &end})
		require.NoError(t, err)
		assert.Len(t, list, 5)
	})

	t.Run("unknown site yields empty non-nil slice", func(t *testing.T) {
		list, err := store.SiteVisits(ctx, "missing", visits.TimeRange{})
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.SiteVisits(cancelled, site.ID, visits.TimeRange{})
		assert.Error(t, err)
	})
}

func TestStoreStorageFailures(t *testing.T) {
	store := visits.NewStore(closedDBManager(t), testsupport.GetLogger(), 0)
	ctx := context.Background()

	t.Run("strict query reports a storage error", func(t *testing.T) {
		_, err := store.SiteVisits(ctx, "site", visits.TimeRange{})
		var storageErr *apperr.StorageError
		assert.True(t, errors.As(err, &storageErr))
	})

	t.Run("soft query degrades to empty", func(t *testing.T) {
		list := store.GetVisits(ctx, "site", visits.TimeRange{})
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("insert reports a storage error", func(t *testing.T) {
		err := store.Insert(ctx, &visits.Visit{SiteID: "site", UserID: "user"})
		var storageErr *apperr.StorageError
		assert.True(t, errors.As(err, &storageErr))
	})
}
