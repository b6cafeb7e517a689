package seeder

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"sitepulse/internal/apperr"
	"sitepulse/internal/sites"
	"sitepulse/internal/visitors"
	"sitepulse/internal/visits"
)

//go:embed fixtures/default.yml
var defaultFixture []byte

// Fixture describes the sites to create and how many visits to generate
type Fixture struct {
	Days        int           `yaml:"days"`
	VisitorPool int           `yaml:"visitorPool"`
	Sites       []SiteFixture `yaml:"sites"`
}

// SiteFixture is one seeded site
type SiteFixture struct {
	UserID      string `yaml:"userId"`
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	Views       int64  `yaml:"views"`
	Visits      int    `yaml:"visits"`
}

// Seeder populates the database with sites and generated visits
type Seeder struct {
	DBManager cartridge.DBManager
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager: dbManager,
		Logger:    logger,
		Now:       time.Now,
	}
}

// DefaultFixture returns the embedded demo fixture
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(defaultFixture)
}

// LoadFixture reads a fixture file from disk
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes a YAML fixture and applies defaults
func ParseFixture(raw []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.Sites) == 0 {
		return nil, errors.New("fixture has no sites")
	}
	if f.Days <= 0 {
		f.Days = 30
	}
	if f.VisitorPool <= 0 {
		f.VisitorPool = 50
	}
	return &f, nil
}

// Run creates every fixture site whose slug is still free and generates its
// visits. Existing sites are left untouched so seeding is repeatable.
func (s *Seeder) Run(ctx context.Context, fixture *Fixture) error {
	start := time.Now()
	siteStore := sites.NewStore(s.DBManager, s.Logger)
	visitorIDs := make([]string, fixture.VisitorPool)
	for i := range visitorIDs {
		visitorIDs[i] = visitors.NewID()
	}

	seeded := 0
	for _, sf := range fixture.Sites {
		if err := ctx.Err(); err != nil {
			return err
		}

		site := &sites.Site{
			UserID:      sf.UserID,
			Title:       sf.Title,
			Slug:        sf.Slug,
			Description: sf.Description,
			Status:      sites.Status(sf.Status),
			HTML:        fmt.Sprintf("<main><h1>%s</h1></main>", sf.Title),
		}
		if err := siteStore.Create(ctx, site); err != nil {
			var validationErr *apperr.ValidationError
			if errors.As(err, &validationErr) && validationErr.Field == "slug" {
				s.Logger.Info("Skipping existing site", slog.String("slug", sf.Slug))
				continue
			}
			return fmt.Errorf("seed site %s: %w", sf.Slug, err)
		}

		if err := s.setViews(site.ID, sf.Views); err != nil {
			return fmt.Errorf("seed views for %s: %w", sf.Slug, err)
		}
		if err := s.generateVisits(ctx, site, sf.Visits, fixture.Days, visitorIDs); err != nil {
			return fmt.Errorf("seed visits for %s: %w", sf.Slug, err)
		}
		seeded++
	}

	s.Logger.Info("Seeding completed",
		slog.Int("sites", seeded),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) setViews(siteID string, views int64) error {
	if views <= 0 {
		return nil
	}
	return sqlite.PerformWrite(s.Logger, s.DBManager.GetConnection(), func(tx *gorm.DB) error {
		return tx.Model(&sites.Site{}).Where("id = ?", siteID).UpdateColumn("views", views).Error
	})
}

// generateVisits inserts count visits in one transaction
func (s *Seeder) generateVisits(ctx context.Context, site *sites.Site, count, days int, visitorIDs []string) error {
	if count <= 0 {
		return nil
	}

	userAgents := getUserAgents()
	referrers := getReferrers()
	ipPool := generateIPPool(100)
	window := time.Duration(days) * 24 * time.Hour
	now := s.Now().UTC()

	batch := make([]visits.Visit, 0, count)
	for i := 0; i < count; i++ {
		ua := userAgents[rand.IntN(len(userAgents))]
		referrer := referrers[rand.IntN(len(referrers))]
		if referrer == "" {
			referrer = visits.DirectReferrer
		}

		batch = append(batch, visits.Visit{
			SiteID:          site.ID,
			UserID:          site.UserID,
			VisitorID:       visitorIDs[rand.IntN(len(visitorIDs))],
			IPAddress:       ipPool[rand.IntN(len(ipPool))],
			UserAgent:       ua,
			Referrer:        referrer,
			Device:          visits.ClassifyDevice(ua),
			SessionDuration: rand.IntN(600),
			VisitedAt:       now.Add(-time.Duration(rand.Int64N(int64(window)))),
		})
	}

	return sqlite.PerformWrite(s.Logger, s.DBManager.GetConnection().WithContext(ctx), func(tx *gorm.DB) error {
		return tx.CreateInBatches(batch, 200).Error
	})
}

func generateIPPool(count int) []string {
	ipPool := make(map[string]bool)
	var ips []string
	for len(ips) < count {
		ip := fmt.Sprintf("%d.%d.%d.%d", rand.IntN(223)+1, rand.IntN(256), rand.IntN(256), rand.IntN(254)+1)
		if !ipPool[ip] {
			ipPool[ip] = true
			ips = append(ips, ip)
		}
	}
	return ips
}

// getUserAgents returns a list of common user agent strings
func getUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Linux; Android 13; SM-X710 Tablet) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// getReferrers returns a list of common referrers
func getReferrers() []string {
	return []string{
		"", // Direct visit
		"https://www.google.com/",
		"https://bing.com/search?q=sitepulse",
		"https://duckduckgo.com/",
		"https://news.ycombinator.com/item?id=1",
		"https://twitter.com/someone/status/1",
		"https://github.com/",
		"android-app://com.google.android.gm",
	}
}
