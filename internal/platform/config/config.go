package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Worker pool for asynchronous batch execution.
	WorkerPoolSize int

	// Observation resolver cache.
	CacheSize int
	CacheTTL  time.Duration

	// Revision scan schedule, in cron syntax.
	RevisionScanSpec string

	// Rate limit in ulule/limiter format, e.g. "100-M" for 100 req/minute.
	RateLimit string

	// Resolver fallback behavior: FALLBACK_CHAIN or STRICT_MATCH.
	FallbackMode string

	// Built-in holiday calendar region.
	CalendarRegion string

	// Delay between records during bulk ingestion. Zero disables pacing.
	IngestPace time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("WORKER_POOL_SIZE", 8)
	viper.SetDefault("OBSERVATION_CACHE_SIZE", 4096)
	viper.SetDefault("OBSERVATION_CACHE_TTL", "5m")
	viper.SetDefault("REVISION_SCAN_SPEC", "0 2 * * *")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("FALLBACK_MODE", "FALLBACK_CHAIN")
	viper.SetDefault("CALENDAR_REGION", "US")
	viper.SetDefault("INGEST_PACE", "0s")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cacheTTLStr := viper.GetString("OBSERVATION_CACHE_TTL")
	cacheTTL, err := time.ParseDuration(cacheTTLStr)
	if err != nil {
		cacheTTL = 5 * time.Minute
		log.Printf("Warning: Invalid value for OBSERVATION_CACHE_TTL ('%s'). Defaulting to %s.\n", cacheTTLStr, cacheTTL)
	}

	ingestPaceStr := viper.GetString("INGEST_PACE")
	ingestPace, err := time.ParseDuration(ingestPaceStr)
	if err != nil {
		ingestPace = 0
		log.Printf("Warning: Invalid value for INGEST_PACE ('%s'). Pacing disabled.\n", ingestPaceStr)
	}

	fallbackMode := viper.GetString("FALLBACK_MODE")
	if fallbackMode != "FALLBACK_CHAIN" && fallbackMode != "STRICT_MATCH" {
		log.Printf("Warning: Invalid FALLBACK_MODE ('%s'). Defaulting to FALLBACK_CHAIN.\n", fallbackMode)
		fallbackMode = "FALLBACK_CHAIN"
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.WorkerPoolSize = viper.GetInt("WORKER_POOL_SIZE")
	cfg.CacheSize = viper.GetInt("OBSERVATION_CACHE_SIZE")
	cfg.CacheTTL = cacheTTL
	cfg.RevisionScanSpec = viper.GetString("REVISION_SCAN_SPEC")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.FallbackMode = fallbackMode
	cfg.CalendarRegion = viper.GetString("CALENDAR_REGION")
	cfg.IngestPace = ingestPace

	return cfg, nil
}
