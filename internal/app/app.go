// Package app wires configuration, storage, the stats client and the sync
// components together for the nbasync CLI and the worker.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"nbadata/ingestion/internal/cache"
	"nbadata/ingestion/internal/client"
	"nbadata/ingestion/internal/config"
	"nbadata/ingestion/internal/fetcher"
	"nbadata/ingestion/internal/merge"
	"nbadata/ingestion/internal/players"
	"nbadata/ingestion/internal/repository"
	"nbadata/ingestion/internal/roster"
	"nbadata/ingestion/internal/stats"
	"nbadata/ingestion/internal/storage"
	"nbadata/ingestion/internal/storage/sqlite"
	"nbadata/ingestion/internal/syncer"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global zerolog logger. Logs go to w so that
// stdout stays free for command output.
func SetupLogger(cfg *config.Config, w io.Writer) {
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	// Pretty console logging in development
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if cfg.LogLevel != "" {
		if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
}

// OpenStore opens the configured storage backend and applies its schema
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err := repository.NewDatabase(ctx, cfg.DatabaseDSN())
		if err != nil {
			return nil, err
		}
		return db, nil
	case "sqlite", "":
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// App holds the long-lived dependencies of a process
type App struct {
	cfg     *config.Config
	store   storage.Store
	client  *client.Client
	cache   *cache.RedisCache
	roster  *roster.Roster
	fetcher *fetcher.Fetcher
}

// New opens the store and builds the sync components. The caller must Close the App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	teams, err := roster.Load()
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	log.Info().Str("driver", cfg.DatabaseDriver).Msg("Store opened")

	a := &App{
		cfg:    cfg,
		store:  store,
		client: client.NewClient(cfg.NBAStatsBaseURL, cfg.NBAStatsTimeout, cfg.APIConcurrencyLimit),
		roster: teams,
	}

	var provider fetcher.Provider = a.client
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			a.cache = redisCache
			provider = cache.NewProvider(a.client, redisCache, cfg.CacheTTLTeamGames)
		}
	}

	a.fetcher = fetcher.New(provider, fetcher.Config{
		Policy: fetcher.Policy{
			MaxAttempts:    cfg.FetchMaxAttempts,
			InitialBackoff: cfg.FetchInitialBackoff,
			MaxBackoff:     cfg.FetchMaxBackoff,
			AttemptTimeout: cfg.FetchAttemptTimeout,
		},
		Concurrency: cfg.FetchConcurrency,
		LeagueID:    cfg.LeagueID,
		Retryable:   client.IsRetryable,
	})

	return a, nil
}

// Store returns the open store
func (a *App) Store() storage.Store {
	return a.store
}

// Close releases the store and the cache connection
func (a *App) Close() error {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis connection")
		}
	}
	return a.store.Close()
}

// SyncGames runs one game synchronization
func (a *App) SyncGames(ctx context.Context) (*syncer.Result, error) {
	keep, err := merge.ParseKeepPolicy(a.cfg.MergeKeepPolicy)
	if err != nil {
		return nil, err
	}
	checkpoint, err := syncer.ParseCheckpointPolicy(a.cfg.CheckpointPolicy)
	if err != nil {
		return nil, err
	}

	s := syncer.New(a.store, a.fetcher, a.roster, syncer.Config{
		KeepPolicy:       keep,
		CheckpointPolicy: checkpoint,
	})
	return s.Run(ctx)
}

// SyncStats downloads league player stats and shot profiles
func (a *App) SyncStats(ctx context.Context) (*stats.Result, error) {
	d := stats.NewDownloader(a.client, a.store, a.fetcher.Retrier(), stats.Config{
		CurrentSeason:  a.cfg.CurrentSeason,
		PastStart:      a.cfg.StatsPastStart,
		PastEnd:        a.cfg.StatsPastEnd,
		ShotsPastStart: a.cfg.ShotsPastStart,
		Concurrency:    a.cfg.FetchConcurrency,
	})
	return d.Run(ctx)
}

func (a *App) players() *players.Downloader {
	return players.NewDownloader(a.client, a.store, a.fetcher.Retrier(), players.Config{
		Season:      a.cfg.CurrentSeason,
		Concurrency: a.cfg.FetchConcurrency,
	})
}

// SyncPlayerLists replaces the active and inactive player lists
func (a *App) SyncPlayerLists(ctx context.Context) (*players.ListResult, error) {
	return a.players().Lists(ctx)
}

// SyncInactivePlayers replaces the career stats of every inactive player
func (a *App) SyncInactivePlayers(ctx context.Context) (int, error) {
	return a.players().InactiveCareers(ctx)
}

// SyncAllTimeLeaders replaces the all-time leader grids
func (a *App) SyncAllTimeLeaders(ctx context.Context) (int, error) {
	return a.players().AllTimeLeaders(ctx)
}

// SyncTeams replaces TEAM_LIST with the static franchise list
func (a *App) SyncTeams(ctx context.Context) (int64, error) {
	return WriteTeams(ctx, a.store, a.roster)
}

// WriteTeams replaces TEAM_LIST with the teams in r
func WriteTeams(ctx context.Context, store storage.Store, r *roster.Roster) (int64, error) {
	var n int64
	err := store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		n, err = storage.Replace(ctx, tx, storage.TeamList, storage.TeamRows(r.Teams()))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write team list: %w", err)
	}

	log.Info().Int64("teams", n).Msg("Team list saved")
	return n, nil
}
