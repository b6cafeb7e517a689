package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal"
	"sitepulse/internal/auth"
	"sitepulse/internal/config"
	"sitepulse/internal/database"
	"sitepulse/internal/sites"
	"sitepulse/internal/visits"
)

func init() {
	if os.Getenv("SITEPULSE_ENV") == "" {
		os.Setenv("SITEPULSE_ENV", config.Test)
	}
}

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with sitepulse's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// SetupTestDB creates a test database with all sitepulse models migrated.
// Uses a named in-memory database with cache=shared to allow multiple connections
// to share the same database within a test. Caches the database by test name
// so multiple calls within the same test return the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Use root test name for caching to handle closure issues where
	// setup functions capture the outer t while t.Run has subtest t
	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", rootName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	// SAFETY CHECK: Ensure we're in test environment
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set SITEPULSE_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// GetLogger returns a logger that only prints errors
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestSite inserts an active site owned by userID
func CreateTestSite(t *testing.T, db *gorm.DB, userID, slug string, views int64) sites.Site {
	t.Helper()

	site := sites.Site{
		UserID: userID,
		Title:  strings.ToUpper(slug[:1]) + slug[1:],
		Slug:   slug,
		HTML:   "<h1>" + slug + "</h1>",
		Views:  views,
	}
	require.NoError(t, db.Create(&site).Error)
	return site
}

// CreateTestVisit inserts a visit for site at visitedAt
func CreateTestVisit(t *testing.T, db *gorm.DB, site sites.Site, visitorID string, visitedAt time.Time) visits.Visit {
	t.Helper()

	visit := visits.Visit{
		SiteID:          site.ID,
		UserID:          site.UserID,
		VisitorID:       visitorID,
		IPAddress:       visits.UnknownIP,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		Referrer:        visits.DirectReferrer,
		Device:          visits.DeviceDesktop,
		SessionDuration: 60,
		VisitedAt:       visitedAt,
	}
	require.NoError(t, db.Create(&visit).Error)
	return visit
}

// IssueTestToken signs a bearer token for userID with the configured secret
func IssueTestToken(t *testing.T, userID string) string {
	t.Helper()

	cfg := config.GetConfig()
	token, err := auth.NewVerifier(cfg.GetJWTSecret(), cfg.JWTIssuer).Issue(userID, time.Hour)
	require.NoError(t, err)
	return token
}

// CreateMinimalTestApp builds the full route tree over db
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager
	// Enable SecFetchSite validation in tests to match production behavior
	cfg.EnableSecFetchSite = true
	cfg.SecFetchSiteAllowedValues = []string{"cross-site", "same-site", "same-origin"}

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}
