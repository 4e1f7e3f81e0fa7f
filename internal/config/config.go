package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port             string
	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int

	StoreDriver       string
	DBURL             string
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int
	RedisURL          string

	IMDbBaseURL     string
	IMDbUserAgent   string
	IMDbTimeoutSecs int

	// ScoreTimezone names the zone whose midnight ends a cached score's day.
	// Empty means the server's local zone.
	ScoreTimezone    string
	RefreshSchedule  string
	RefreshBatchSize int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults and validation.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:              getEnv("PORT", "3001"),
		ReadTimeoutSecs:   getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:  getEnvInt("SERVER_WRITE_TIMEOUT", 30),
		IdleTimeoutSecs:   getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DBURL:             os.Getenv("DB_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 1),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:  getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 128),
		RedisURL:          os.Getenv("REDIS_URL"),
		IMDbBaseURL:       getEnv("IMDB_BASE_URL", "https://www.imdb.com"),
		IMDbUserAgent:     os.Getenv("IMDB_USER_AGENT"),
		IMDbTimeoutSecs:   getEnvInt("IMDB_TIMEOUT_SECS", 10),
		ScoreTimezone:     os.Getenv("SCORE_TIMEZONE"),
		RefreshSchedule:   os.Getenv("REFRESH_SCHEDULE"),
		RefreshBatchSize:  getEnvInt("REFRESH_BATCH_SIZE", 50),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required when STORE_DRIVER=postgres")
		}
	case DriverRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required when STORE_DRIVER=redis")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be one of postgres, redis, memory (got %q)", cfg.StoreDriver)
	}
	if cfg.IMDbTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("IMDB_TIMEOUT_SECS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, fmt.Errorf("SCORE_TIMEZONE: %w", err)
	}
	if cfg.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
			return Config{}, fmt.Errorf("REFRESH_SCHEDULE: %w", err)
		}
	}
	if cfg.RefreshBatchSize <= 0 {
		return Config{}, fmt.Errorf("REFRESH_BATCH_SIZE must be positive")
	}

	return cfg, nil
}

// Location resolves ScoreTimezone.
func (c Config) Location() (*time.Location, error) {
	if c.ScoreTimezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.ScoreTimezone)
}

// IMDbTimeout is the bound on one outbound ratings page fetch.
func (c Config) IMDbTimeout() time.Duration {
	return time.Duration(c.IMDbTimeoutSecs) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
