package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"nbadata/ingestion/internal/merge"
	"nbadata/ingestion/internal/syncer"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	// NBA stats provider
	NBAStatsBaseURL string        `envconfig:"NBA_STATS_BASE_URL" default:"https://stats.nba.com/stats"`
	NBAStatsTimeout time.Duration `envconfig:"NBA_STATS_TIMEOUT" default:"30s"`
	LeagueID        string        `envconfig:"NBA_LEAGUE_ID" default:"00"`

	// Fetch retry policy
	FetchMaxAttempts    int           `envconfig:"FETCH_MAX_ATTEMPTS" default:"5"`
	FetchInitialBackoff time.Duration `envconfig:"FETCH_INITIAL_BACKOFF" default:"1s"`
	FetchMaxBackoff     time.Duration `envconfig:"FETCH_MAX_BACKOFF" default:"30s"`
	FetchAttemptTimeout time.Duration `envconfig:"FETCH_ATTEMPT_TIMEOUT" default:"60s"`
	FetchConcurrency    int           `envconfig:"FETCH_CONCURRENCY" default:"1"`
	APIConcurrencyLimit int           `envconfig:"API_CONCURRENCY_LIMIT" default:"4"`

	// Storage
	DatabaseDriver   string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	SQLitePath       string `envconfig:"SQLITE_PATH" default:"nba.db"`
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"nba"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"nba_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis response cache
	CacheEnabled      bool          `envconfig:"CACHE_ENABLED" default:"false"`
	RedisHost         string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort         int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword     string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB           int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTLTeamGames time.Duration `envconfig:"CACHE_TTL_TEAM_GAMES" default:"6h"`

	// Game sync
	MergeKeepPolicy  string `envconfig:"MERGE_KEEP_POLICY" default:"home"`
	CheckpointPolicy string `envconfig:"CHECKPOINT_POLICY" default:"yesterday"`

	// Player stats
	CurrentSeason  string `envconfig:"CURRENT_SEASON" default:"2022-23"`
	StatsPastStart int    `envconfig:"STATS_PAST_START" default:"1996"`
	StatsPastEnd   int    `envconfig:"STATS_PAST_END" default:"2021"`
	ShotsPastStart int    `envconfig:"SHOTS_PAST_START" default:"2013"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	RunOnStartup    bool   `envconfig:"RUN_ON_STARTUP" default:"false"`
	SyncCron        string `envconfig:"SYNC_CRON" default:"0 6 * * *"`
	SyncStats       bool   `envconfig:"SYNC_STATS" default:"true"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite":
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DatabasePassword == "" {
			return fmt.Errorf("DATABASE_PASSWORD is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver)
	}

	if c.FetchMaxAttempts < 1 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be at least 1")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}
	if c.APIConcurrencyLimit < 1 {
		return fmt.Errorf("API_CONCURRENCY_LIMIT must be at least 1")
	}

	if _, err := merge.ParseKeepPolicy(c.MergeKeepPolicy); err != nil {
		return fmt.Errorf("MERGE_KEEP_POLICY: %w", err)
	}

	if _, err := syncer.ParseCheckpointPolicy(c.CheckpointPolicy); err != nil {
		return fmt.Errorf("CHECKPOINT_POLICY: %w", err)
	}

	if c.StatsPastStart >= c.StatsPastEnd {
		return fmt.Errorf("STATS_PAST_START must be before STATS_PAST_END")
	}

	if c.EnableScheduler {
		if _, err := cron.ParseStandard(c.SyncCron); err != nil {
			return fmt.Errorf("SYNC_CRON is not a valid cron spec: %w", err)
		}
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
