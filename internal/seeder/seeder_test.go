package seeder_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/seeder"
	"sitepulse/internal/sites"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/visits"
)

func TestParseFixture(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		f, err := seeder.ParseFixture([]byte("sites:\n  - userId: u\n    title: T\n    slug: tee\n"))
		require.NoError(t, err)
		assert.Equal(t, 30, f.Days)
		assert.Equal(t, 50, f.VisitorPool)
		require.Len(t, f.Sites, 1)
		assert.Equal(t, "tee", f.Sites[0].Slug)
	})

	t.Run("rejects empty fixture", func(t *testing.T) {
		_, err := seeder.ParseFixture([]byte("days: 3\n"))
		assert.Error(t, err)
	})

	t.Run("rejects invalid yaml", func(t *testing.T) {
		_, err := seeder.ParseFixture([]byte("sites: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("embedded default parses", func(t *testing.T) {
		f, err := seeder.DefaultFixture()
		require.NoError(t, err)
		assert.NotEmpty(t, f.Sites)
	})
}

func TestSeederRun(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	fixedNow := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s := seeder.NewSeeder(dbManager, logger)
	s.Now = func() time.Time { return fixedNow }

	fixture, err := seeder.ParseFixture([]byte(`
days: 7
visitorPool: 5
sites:
  - userId: user_1
    title: Alpha
    slug: alpha
    views: 40
    visits: 25
  - userId: user_1
    title: Beta
    slug: beta
    status: draft
    visits: 0
`))
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background(), fixture))

	var alpha sites.Site
	require.NoError(t, db.First(&alpha, "slug = ?", "alpha").Error)
	assert.Equal(t, int64(40), alpha.Views)

	var beta sites.Site
	require.NoError(t, db.First(&beta, "slug = ?", "beta").Error)
	assert.Equal(t, sites.StatusDraft, beta.Status)

	var seeded []visits.Visit
	require.NoError(t, db.Where("site_id = ?", alpha.ID).Find(&seeded).Error)
	require.Len(t, seeded, 25)

	visitorSet := map[string]bool{}
	for _, v := range seeded {
		visitorSet[v.VisitorID] = true
		assert.Equal(t, "user_1", v.UserID)
		assert.False(t, v.VisitedAt.After(fixedNow))
		assert.True(t, v.VisitedAt.After(fixedNow.Add(-7*24*time.Hour-time.Second)))
		assert.Contains(t, []string{visits.DeviceDesktop, visits.DeviceMobile, visits.DeviceTablet}, v.Device)
	}
	assert.LessOrEqual(t, len(visitorSet), 5)

	t.Run("re-running skips existing slugs", func(t *testing.T) {
		require.NoError(t, s.Run(context.Background(), fixture))

		var count int64
		require.NoError(t, db.Model(&visits.Visit{}).Count(&count).Error)
		assert.Equal(t, int64(25), count)
	})
}
