package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
	StorageRedis  = "redis"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	Timezone           string
	CommissionRate     decimal.Decimal
	PricePrecedence    string
	StrictRates        bool
	StorageMode        string
	RulesStore         string
	MongoURI           string
	MongoDB            string
	RedisURL           string
	RedisRulesKey      string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	IdempotencyTTL     time.Duration
	RemoteStoreURL     string
	RemoteStoreTimeout time.Duration
	SyncOnStart        bool
	SnapshotPath       string
	BackupSchedule     string
	S3Endpoint         string
	S3AccessKey        string
	S3SecretKey        string
	S3Bucket           string
	S3UseSSL           bool
	CORSOrigins        []string
}

// Location resolves Timezone, falling back to UTC for an unknown zone name.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadDotEnv reads .env files outside production. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		return nil
	}
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		Timezone:         getEnv("TIMEZONE", "Europe/Istanbul"),
		PricePrecedence:  strings.ToLower(getEnv("PRICE_PRECEDENCE", "always")),
		StorageMode:      strings.ToLower(getEnv("STORAGE_MODE", StorageMemory)),
		RulesStore:       strings.ToLower(getEnv("RULES_STORE", "")),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "villaledger"),
		RedisURL:         os.Getenv("REDIS_URL"),
		RedisRulesKey:    getEnv("REDIS_RULES_KEY", "villaledger:price_rules"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		RemoteStoreURL:   os.Getenv("REMOTE_STORE_URL"),
		SnapshotPath:     getEnv("SNAPSHOT_PATH", "public/villa.html"),
		BackupSchedule:   getEnv("BACKUP_SCHEDULE", ""),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "villa-backups"),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "http://localhost:3000"))

	rate, err := decimal.NewFromString(getEnv("COMMISSION_RATE", "10"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid COMMISSION_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return Config{}, fmt.Errorf("COMMISSION_RATE must be within [0, 100], got %s", rate)
	}
	cfg.CommissionRate = rate

	if cfg.StrictRates, err = parseBoolEnv("STRICT_RATES", true); err != nil {
		return Config{}, err
	}
	if cfg.SyncOnStart, err = parseBoolEnv("SYNC_ON_START", true); err != nil {
		return Config{}, err
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.RemoteStoreTimeout, err = parseDurationEnv("REMOTE_STORE_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	for _, raw := range splitList(getEnv("RETRY_BACKOFF", "1s,5s,30s")) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	switch cfg.StorageMode {
	case StorageMemory, StorageMongo:
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_MODE %q", cfg.StorageMode)
	}
	if cfg.RulesStore == "" {
		cfg.RulesStore = cfg.StorageMode
	}
	switch cfg.RulesStore {
	case StorageMemory, StorageMongo, StorageRedis:
	default:
		return Config{}, fmt.Errorf("unsupported RULES_STORE %q", cfg.RulesStore)
	}
	if (cfg.StorageMode == StorageMongo || cfg.RulesStore == StorageMongo) && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required for mongo storage")
	}
	if cfg.RulesStore == StorageRedis && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL is required for redis rules store")
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
