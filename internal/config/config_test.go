package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://stats.nba.com/stats", cfg.NBAStatsBaseURL)
	assert.Equal(t, 30*time.Second, cfg.NBAStatsTimeout)
	assert.Equal(t, "00", cfg.LeagueID)
	assert.Equal(t, 5, cfg.FetchMaxAttempts)
	assert.Equal(t, 1, cfg.FetchConcurrency)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "nba.db", cfg.SQLitePath)
	assert.Equal(t, "home", cfg.MergeKeepPolicy)
	assert.Equal(t, "yesterday", cfg.CheckpointPolicy)
	assert.Equal(t, "0 6 * * *", cfg.SyncCron)
	assert.False(t, cfg.CacheEnabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("FETCH_MAX_ATTEMPTS", "3")
	t.Setenv("FETCH_ATTEMPT_TIMEOUT", "10s")
	t.Setenv("MERGE_KEEP_POLICY", "winner")
	t.Setenv("CHECKPOINT_POLICY", "latest-game")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.FetchMaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.FetchAttemptTimeout)
	assert.Equal(t, "winner", cfg.MergeKeepPolicy)
	assert.Equal(t, "latest-game", cfg.CheckpointPolicy)
	assert.Equal(t, "localhost:6380", cfg.RedisAddr())
	assert.Equal(t, "host=localhost port=5432 user=nba_user password=secret dbname=nba sslmode=disable", cfg.DatabaseDSN())
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("FETCH_MAX_ATTEMPTS", "many")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseDriver:      "sqlite",
			SQLitePath:          "nba.db",
			FetchMaxAttempts:    5,
			FetchConcurrency:    1,
			APIConcurrencyLimit: 4,
			MergeKeepPolicy:     "home",
			CheckpointPolicy:    "yesterday",
			StatsPastStart:      1996,
			StatsPastEnd:        2021,
			EnableScheduler:     true,
			SyncCron:            "0 6 * * *",
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }},
		{"empty sqlite path", func(c *Config) { c.SQLitePath = " " }},
		{"postgres without password", func(c *Config) { c.DatabaseDriver = "postgres" }},
		{"zero attempts", func(c *Config) { c.FetchMaxAttempts = 0 }},
		{"zero concurrency", func(c *Config) { c.FetchConcurrency = 0 }},
		{"zero api limit", func(c *Config) { c.APIConcurrencyLimit = 0 }},
		{"unknown keep policy", func(c *Config) { c.MergeKeepPolicy = "favorite" }},
		{"unknown checkpoint policy", func(c *Config) { c.CheckpointPolicy = "today" }},
		{"empty past range", func(c *Config) { c.StatsPastEnd = c.StatsPastStart }},
		{"bad cron", func(c *Config) { c.SyncCron = "daily" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidate_PoliciesMatchSyncParsers(t *testing.T) {
	c := &Config{
		DatabaseDriver:      "sqlite",
		SQLitePath:          "nba.db",
		FetchMaxAttempts:    1,
		FetchConcurrency:    1,
		APIConcurrencyLimit: 1,
		MergeKeepPolicy:     "home",
		StatsPastStart:      1996,
		StatsPastEnd:        2021,
	}

	for _, policy := range []string{"", "yesterday", "latest-game"} {
		c.CheckpointPolicy = policy
		assert.NoError(t, c.Validate(), "checkpoint policy %q", policy)
	}

	c.CheckpointPolicy = "today"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECKPOINT_POLICY")
}

func TestValidate_CronIgnoredWhenSchedulerDisabled(t *testing.T) {
	c := &Config{
		DatabaseDriver:      "sqlite",
		SQLitePath:          "nba.db",
		FetchMaxAttempts:    1,
		FetchConcurrency:    1,
		APIConcurrencyLimit: 1,
		MergeKeepPolicy:     "all",
		CheckpointPolicy:    "yesterday",
		StatsPastStart:      1996,
		StatsPastEnd:        2021,
		SyncCron:            "daily",
	}
	assert.NoError(t, c.Validate())
}
