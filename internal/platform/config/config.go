package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"evaltool/internal/domain/evaluation"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Addr               string
	Environment        string
	StorageDriver      string
	DataDir            string
	DatabaseURL        string
	RedisURL           string
	StorageNamespace   string
	StorageKey         string
	DataEncryptionKey  string
	RemoteURL          string
	RemoteToken        string
	JWTSecret          string
	CORSOrigins        []string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	SyncInterval       time.Duration
	MetricsEnabled     bool
	RunMigrations      bool
	LogLevel           string
	LogFormat          string
}

// Load reads .env files when present and then the process environment.
// Variables already set in the environment win over .env values.
func Load() Config {
	for _, file := range []string{".env", ".env.local"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", DriverFile)),
		DataDir:            getEnv("DATA_DIR", "data"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		StorageNamespace:   getEnv("STORAGE_NAMESPACE", "default"),
		StorageKey:         getEnv("STORAGE_KEY", evaluation.DefaultStorageKey),
		DataEncryptionKey:  getEnv("DATA_ENCRYPTION_KEY", ""),
		RemoteURL:          getEnv("REMOTE_URL", ""),
		RemoteToken:        getEnv("REMOTE_TOKEN", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"*"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 4<<20)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		SyncInterval:       getEnvDuration("SYNC_INTERVAL", 0),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverFile:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("DATA_DIR is required for the file storage driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	case DriverRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required for the redis storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("STORAGE_KEY must not be empty")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("SYNC_INTERVAL must not be negative")
	}
	if c.SyncInterval > 0 && c.RemoteURL == "" {
		return fmt.Errorf("SYNC_INTERVAL requires REMOTE_URL")
	}
	return nil
}
