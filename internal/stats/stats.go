// Package stats downloads league player season totals and per-player shot
// dashboards into the mirror.
package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"nbadata/ingestion/internal/fetcher"
	"nbadata/ingestion/internal/metrics"
	"nbadata/ingestion/internal/models"
	"nbadata/ingestion/internal/storage"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Operation names used in errors, logs and metrics
const (
	OpLeaguePlayerStats = "league_player_stats"
	OpPlayerShots       = "player_shots"
)

// Provider is the remote source of player statistics
type Provider interface {
	LeagueDashPlayerStats(ctx context.Context, season string) ([]models.LeaguePlayerStat, error)
	PlayerDashPtShots(ctx context.Context, teamID, playerID int64, season string) ([]models.ShotProfile, error)
}

// Seasons returns the seasons starting in [start, end) as "YYYY-YY"
func Seasons(start, end int) []string {
	var seasons []string
	for y := start; y < end; y++ {
		next := strconv.Itoa(y + 1)
		seasons = append(seasons, fmt.Sprintf("%d-%s", y, next[len(next)-2:]))
	}
	return seasons
}

// Config configures a Downloader
type Config struct {
	CurrentSeason  string
	PastStart      int
	PastEnd        int
	ShotsPastStart int
	Concurrency    int
	// Now returns the run time; defaults to time.Now
	Now func() time.Time
}

// Result counts the rows a run wrote
type Result struct {
	Backfilled   bool
	PastStats    int
	PastShots    int
	CurrentStats int
	CurrentShots int
}

// Downloader writes the LEAGUE_PLAYER_STATS and SHOT_PROFILES tables
type Downloader struct {
	provider Provider
	store    storage.Store
	retrier  *fetcher.Retrier
	cfg      Config
}

// NewDownloader creates a downloader sharing retrier's policy
func NewDownloader(provider Provider, store storage.Store, retrier *fetcher.Retrier, cfg Config) *Downloader {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Downloader{provider: provider, store: store, retrier: retrier, cfg: cfg}
}

// Run backfills the past tables when they are empty, then replaces the
// current-season tables and advances the stats checkpoint.
func (d *Downloader) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res, err := d.run(ctx)

	status := "success"
	if err != nil {
		status = "error"
		metrics.RecordError("stats", "sync")
	}
	metrics.RecordSync("stats", status, time.Since(start).Seconds())
	return res, err
}

func (d *Downloader) run(ctx context.Context) (*Result, error) {
	res := &Result{}

	n, err := d.store.Count(ctx, storage.LeaguePlayerStatsPast)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if err := d.backfill(ctx, res); err != nil {
			return nil, fmt.Errorf("backfill past seasons: %w", err)
		}
	}

	season := d.cfg.CurrentSeason
	current, err := d.seasonStats(ctx, season, true)
	if err != nil {
		return nil, err
	}
	shots, err := d.shotProfiles(ctx, current, season)
	if err != nil {
		return nil, err
	}

	through := storage.DateOnly(d.cfg.Now()).AddDate(0, 0, -1)
	err = d.store.InTx(ctx, func(tx storage.Tx) error {
		if _, err := storage.Replace(ctx, tx, storage.LeaguePlayerStatsCurrent, storage.PlayerStatRows(current)); err != nil {
			return err
		}
		if _, err := storage.Replace(ctx, tx, storage.ShotProfilesCurrent, storage.ShotProfileRows(shots)); err != nil {
			return err
		}
		return tx.WriteCheckpoint(ctx, storage.DatasetStats, through)
	})
	if err != nil {
		return nil, fmt.Errorf("persist current season: %w", err)
	}
	res.CurrentStats = len(current)
	res.CurrentShots = len(shots)

	metrics.RecordRowsIngested(storage.LeaguePlayerStatsCurrent.Name, int64(len(current)))
	metrics.RecordRowsIngested(storage.ShotProfilesCurrent.Name, int64(len(shots)))
	metrics.RecordCheckpoint(storage.DatasetStats, through)

	log.Info().
		Str("season", season).
		Int("players", len(current)).
		Int("shot_rows", len(shots)).
		Msg("Updated current season player stats")

	return res, nil
}

func (d *Downloader) backfill(ctx context.Context, res *Result) error {
	bySeason := make(map[string][]models.LeaguePlayerStat)
	var past []models.LeaguePlayerStat
	for _, season := range Seasons(d.cfg.PastStart, d.cfg.PastEnd) {
		stats, err := d.seasonStats(ctx, season, false)
		if err != nil {
			return err
		}
		bySeason[season] = stats
		past = append(past, stats...)
	}

	shotStart := d.cfg.ShotsPastStart
	if shotStart < d.cfg.PastStart {
		shotStart = d.cfg.PastStart
	}
	var shots []models.ShotProfile
	for _, season := range Seasons(shotStart, d.cfg.PastEnd) {
		profiles, err := d.shotProfiles(ctx, bySeason[season], season)
		if err != nil {
			return err
		}
		shots = append(shots, profiles...)
		log.Info().
			Str("season", season).
			Int("shot_rows", len(profiles)).
			Msg("Downloaded past shot profiles")
	}

	err := d.store.InTx(ctx, func(tx storage.Tx) error {
		if _, err := storage.Replace(ctx, tx, storage.LeaguePlayerStatsPast, storage.PlayerStatRows(past)); err != nil {
			return err
		}
		_, err := storage.Replace(ctx, tx, storage.ShotProfilesPast, storage.ShotProfileRows(shots))
		return err
	})
	if err != nil {
		return err
	}

	res.Backfilled = true
	res.PastStats = len(past)
	res.PastShots = len(shots)
	metrics.RecordRowsIngested(storage.LeaguePlayerStatsPast.Name, int64(len(past)))
	metrics.RecordRowsIngested(storage.ShotProfilesPast.Name, int64(len(shots)))

	log.Info().
		Int("player_seasons", len(past)).
		Int("shot_rows", len(shots)).
		Msg("Backfilled past player stats")
	return nil
}

func (d *Downloader) seasonStats(ctx context.Context, season string, current bool) ([]models.LeaguePlayerStat, error) {
	stats, err := fetcher.Do(ctx, d.retrier, OpLeaguePlayerStats, 0, func(ctx context.Context) ([]models.LeaguePlayerStat, error) {
		return d.provider.LeagueDashPlayerStats(ctx, season)
	})
	if err != nil {
		return nil, fmt.Errorf("season %s: %w", season, err)
	}
	for i := range stats {
		stats[i].Season = season
		stats[i].Current = current
	}
	return stats, nil
}

// shotProfiles fetches the shot dashboards of every player line, keeping player order
func (d *Downloader) shotProfiles(ctx context.Context, players []models.LeaguePlayerStat, season string) ([]models.ShotProfile, error) {
	perPlayer := make([][]models.ShotProfile, len(players))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for i, p := range players {
		g.Go(func() error {
			profiles, err := fetcher.Do(gctx, d.retrier, OpPlayerShots, p.TeamID, func(ctx context.Context) ([]models.ShotProfile, error) {
				return d.provider.PlayerDashPtShots(ctx, p.TeamID, p.PlayerID, season)
			})
			if err != nil {
				return fmt.Errorf("player %d season %s: %w", p.PlayerID, season, err)
			}
			perPlayer[i] = profiles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []models.ShotProfile
	for _, profiles := range perPlayer {
		out = append(out, profiles...)
	}
	return out, nil
}
