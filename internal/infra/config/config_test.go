package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"APP_ENV", "HTTP_ADDR", "TIMEZONE", "COMMISSION_RATE", "PRICE_PRECEDENCE", "STRICT_RATES",
	"STORAGE_MODE", "RULES_STORE", "MONGO_URI", "REDIS_URL", "KAFKA_BROKERS", "RETRY_BACKOFF",
	"SYNC_ON_START", "REMOTE_STORE_TIMEOUT", "CORS_ORIGINS",
}

// clearEnv blanks every key Load reads; empty values fall back to defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorageMemory, cfg.StorageMode)
	assert.Equal(t, StorageMemory, cfg.RulesStore)
	assert.True(t, cfg.CommissionRate.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "always", cfg.PricePrecedence)
	assert.True(t, cfg.StrictRates)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMMISSION_RATE", "12.5")
	t.Setenv("PRICE_PRECEDENCE", "UNTIL_STAY_CHANGES")
	t.Setenv("STRICT_RATES", "off")
	t.Setenv("STORAGE_MODE", "mongo")
	t.Setenv("RULES_STORE", "redis")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RETRY_BACKOFF", "2s,1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.CommissionRate.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "until_stay_changes", cfg.PricePrecedence)
	assert.False(t, cfg.StrictRates)
	assert.Equal(t, StorageMongo, cfg.StorageMode)
	assert.Equal(t, StorageRedis, cfg.RulesStore)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []time.Duration{2 * time.Second, time.Minute}, cfg.RetryBackoff)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"commission above 100":    {"COMMISSION_RATE": "120"},
		"commission not a number": {"COMMISSION_RATE": "ten"},
		"unknown storage":         {"STORAGE_MODE": "sqlite"},
		"mongo without uri":       {"STORAGE_MODE": "mongo"},
		"redis without url":       {"RULES_STORE": "redis"},
		"bad bool":                {"SYNC_ON_START": "maybe"},
		"bad duration":            {"REMOTE_STORE_TIMEOUT": "soon"},
		"bad backoff":             {"RETRY_BACKOFF": "1s,later"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Config{Timezone: "Mars/Olympus"}.Location())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("VILLA_TEST_MARKER=from-file\n"), 0o600))
	t.Setenv("VILLA_TEST_MARKER", "")
	require.NoError(t, os.Unsetenv("VILLA_TEST_MARKER"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("VILLA_TEST_MARKER"))
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
