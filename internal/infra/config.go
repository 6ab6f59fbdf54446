package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	StoreBackend       string
	DatabaseURL        string
	DBMaxConns         int
	SessionSecret      string
	SessionTTL         time.Duration
	CORSAllowedOrigins []string
	GeoIPDBPath        string
	DefaultLocale      string
	AWSRegion          string
	DynamoDBEndpoint   string
	DynamoDBPrefix     string
	NotifyChannel      string
	ReconcileInterval  time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	ShutdownGrace      time.Duration
	LogLevel           string
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		SessionTTL:         time.Hour * time.Duration(getEnvInt("SESSION_TTL_HOURS", 12)),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en-IN"),
		AWSRegion:          getEnv("AWS_REGION", "ap-south-1"),
		DynamoDBEndpoint:   os.Getenv("DYNAMODB_ENDPOINT"),
		DynamoDBPrefix:     getEnv("DYNAMODB_TABLE_PREFIX", "donortrack_"),
		NotifyChannel:      getEnv("NOTIFY_CHANNEL", "donortrack_changes"),
		ReconcileInterval:  time.Second * time.Duration(getEnvInt("RECONCILE_INTERVAL_SECONDS", 300)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ShutdownGrace:      time.Second * time.Duration(getEnvInt("SHUTDOWN_GRACE_SECONDS", 10)),
		LogLevel:           strings.ToLower(os.Getenv("LOG_LEVEL")),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case BackendDynamoDB, BackendMemory:
	default:
		return nil, fmt.Errorf("STORE_BACKEND %q is not one of postgres, dynamodb, memory", cfg.StoreBackend)
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
