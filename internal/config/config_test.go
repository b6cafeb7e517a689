package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigFromEnvironment(t *testing.T) {
	t.Setenv("SITEPULSE_ENV", Test)
	t.Setenv("SITEPULSE_APP_PORT", "4100")
	t.Setenv("SITEPULSE_QUERY_TIMEOUT_SECONDS", "3")
	t.Setenv("SITEPULSE_ANALYTICS_WORKERS", "2")
	t.Setenv("SITEPULSE_JWT_SECRET", "jwt-secret")
	Reset()
	t.Cleanup(Reset)

	cfg := GetConfig()

	assert.True(t, cfg.IsTest())
	assert.Equal(t, "4100", cfg.GetPort())
	assert.Equal(t, 3*time.Second, cfg.GetQueryTimeout())
	assert.Equal(t, 2, cfg.GetAnalyticsWorkers())
	assert.Equal(t, "jwt-secret", cfg.GetJWTSecret())
	assert.Equal(t, 1, cfg.GetMaxOpenConns())
	assert.Contains(t, cfg.DatabaseDSN(), "sitepulse-test.db")
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv("SITEPULSE_ENV", Development)
	Reset()
	t.Cleanup(Reset)

	cfg := GetConfig()

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 5*time.Second, cfg.GetQueryTimeout())
	assert.Equal(t, 8, cfg.GetAnalyticsWorkers())
	assert.Equal(t, 70, cfg.GetIngestRateLimit())
	assert.Equal(t, 15*time.Minute, cfg.GetCheckpointInterval())
	assert.Equal(t, 10, cfg.GetMaxOpenConns())
	assert.Equal(t, cfg.PrivateKey, cfg.GetJWTSecret(), "jwt secret falls back to the private key")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Environment: Production, DatabaseType: SQLiteDatabase}, false},
		{"unknown environment", Config{Environment: "staging", DatabaseType: SQLiteDatabase}, true},
		{"unknown database", Config{Environment: Test, DatabaseType: "postgres"}, true},
		{"negative timeout", Config{Environment: Test, DatabaseType: SQLiteDatabase, QueryTimeoutSeconds: -1}, true},
		{"negative workers", Config{Environment: Test, DatabaseType: SQLiteDatabase, AnalyticsWorkers: -1}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
