package geoip

import (
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"sitepulse/internal/config"
)

var (
	geoDB  *geoip2.Reader
	once   sync.Once
	mu     sync.RWMutex
	logger = slog.Default()
)

// InitLogger sets the logger for the geoip package.
func InitLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// openGeoDB opens the configured GeoLite2 database.
// Returns nil if the database is not configured or not found (GeoIP is optional).
func openGeoDB(path string) *geoip2.Reader {
	if path == "" {
		logger.Debug("GeoIP database path not configured - country lookup disabled")
		return nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("GeoLite2 database not found - country lookup disabled",
			slog.String("path", path),
			slog.String("hint", "Download from https://www.maxmind.com/en/geolite2/signup"))
		return nil
	} else if err != nil {
		logger.Warn("Error checking GeoLite2 database file",
			slog.String("path", path),
			slog.Any("error", err))
		return nil
	}

	db, err := geoip2.Open(path)
	if err != nil {
		logger.Error("Failed to open GeoLite2 database",
			slog.String("path", path),
			slog.Any("error", err))
		return nil
	}

	logger.Info("GeoLite2 database initialized", slog.String("path", path))
	return db
}

// GetGeoDB returns the GeoLite2 database reader, opening it on first use.
func GetGeoDB() *geoip2.Reader {
	once.Do(func() {
		mu.Lock()
		geoDB = openGeoDB(config.GetConfig().GeoDBPath)
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return geoDB
}

// Close releases the database reader, if one was opened.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if geoDB != nil {
		geoDB.Close()
		geoDB = nil
	}
}

// CountryCode resolves an IP address to an upper-case ISO alpha-2 code.
// It returns "" when the lookup is disabled or the address cannot be resolved.
func CountryCode(ipAddress string) string {
	ip := net.ParseIP(strings.TrimSpace(ipAddress))
	if ip == nil {
		return ""
	}

	db := GetGeoDB()
	if db == nil {
		return ""
	}

	record, err := db.Country(ip)
	if err != nil {
		logger.Debug("Country lookup failed",
			slog.String("ip_address", ipAddress),
			slog.Any("error", err))
		return ""
	}
	return strings.ToUpper(record.Country.IsoCode)
}
