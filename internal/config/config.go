// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

const defaultSecret = "88888888888888888888888888888888"

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`

	// Bearer token verification for the analytics API
	JWTSecret string `mapstructure:"jwtsecret"`
	JWTIssuer string `mapstructure:"jwtissuer"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	GeoDBPath             string `mapstructure:"geodbpath"`
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Query and aggregation settings
	QueryTimeoutSeconds int `mapstructure:"querytimeoutseconds"`
	AnalyticsWorkers    int `mapstructure:"analyticsworkers"`

	// Public ingestion settings
	IngestRateLimitPerMinute int `mapstructure:"ingestratelimitperminute"`

	// Background maintenance
	CheckpointIntervalSeconds int `mapstructure:"checkpointintervalseconds"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		// A missing .env is the normal case outside local development.
		_ = godotenv.Load()

		v := viper.New()

		v.SetDefault("appname", "sitepulse")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", defaultSecret)
		v.SetDefault("jwtsecret", "")
		v.SetDefault("jwtissuer", "")
		v.SetDefault("storagepath", "storage")
		v.SetDefault("geodbpath", "")
		v.SetDefault("publicdir", "public")
		v.SetDefault("publicassetsurlprefix", "/")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("querytimeoutseconds", 5)
		v.SetDefault("analyticsworkers", 8)
		v.SetDefault("ingestratelimitperminute", 70)
		v.SetDefault("checkpointintervalseconds", 900)

		v.BindEnv("appname", "SITEPULSE_APP_NAME")
		v.BindEnv("appport", "SITEPULSE_APP_PORT")
		v.BindEnv("environment", "SITEPULSE_ENV")
		v.BindEnv("loglevel", "SITEPULSE_LOG_LEVEL")
		v.BindEnv("privatekey", "SITEPULSE_PRIVATE_KEY")
		v.BindEnv("jwtsecret", "SITEPULSE_JWT_SECRET")
		v.BindEnv("jwtissuer", "SITEPULSE_JWT_ISSUER")
		v.BindEnv("storagepath", "SITEPULSE_STORAGE_PATH")
		v.BindEnv("geodbpath", "SITEPULSE_GEO_DB_PATH")
		v.BindEnv("publicdir", "SITEPULSE_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "SITEPULSE_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("logsdir", "SITEPULSE_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "SITEPULSE_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "SITEPULSE_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "SITEPULSE_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbtype", "SITEPULSE_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "SITEPULSE_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "SITEPULSE_DB_MAX_IDLE_CONNS")
		v.BindEnv("querytimeoutseconds", "SITEPULSE_QUERY_TIMEOUT_SECONDS")
		v.BindEnv("analyticsworkers", "SITEPULSE_ANALYTICS_WORKERS")
		v.BindEnv("ingestratelimitperminute", "SITEPULSE_INGEST_RATE_LIMIT_PER_MINUTE")
		v.BindEnv("checkpointintervalseconds", "SITEPULSE_CHECKPOINT_INTERVAL_SECONDS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()

		if cfg.PrivateKey == "" {
			log.Fatal("Private key is required")
		}
		if cfg.IsProduction() && cfg.PrivateKey == defaultSecret {
			log.Fatal("Production requires a unique SITEPULSE_PRIVATE_KEY (cannot use default)")
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	if c.QueryTimeoutSeconds < 0 {
		return fmt.Errorf("invalid query timeout: %d", c.QueryTimeoutSeconds)
	}
	if c.AnalyticsWorkers < 0 {
		return fmt.Errorf("invalid analytics worker count: %d", c.AnalyticsWorkers)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetJWTSecret returns the HMAC secret used to verify bearer tokens.
// Falls back to the private key so development setups need a single secret.
func (c *Config) GetJWTSecret() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	return c.PrivateKey
}

// GetQueryTimeout returns the per-fetch timeout applied by the visit store.
// Zero disables the timeout.
func (c *Config) GetQueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// GetAnalyticsWorkers returns how many per-site visit fetches may run at once.
func (c *Config) GetAnalyticsWorkers() int {
	if c.AnalyticsWorkers > 0 {
		return c.AnalyticsWorkers
	}
	return 8
}

// GetIngestRateLimit returns the per-IP request budget per minute for POST /visits.
func (c *Config) GetIngestRateLimit() int {
	if c.IngestRateLimitPerMinute > 0 {
		return c.IngestRateLimitPerMinute
	}
	return 70
}

// GetCheckpointInterval returns how often the WAL is checkpointed in the
// background. Zero disables the job.
func (c *Config) GetCheckpointInterval() time.Duration {
	return time.Duration(c.CheckpointIntervalSeconds) * time.Second
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 10 (concurrent reads for the per-site fan-out)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
