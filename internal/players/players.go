// Package players downloads the static player lists, the career totals of
// inactive players and the all-time leader grids into the mirror.
package players

import (
	"context"
	"fmt"
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
	OpPlayerList     = "player_list"
	OpPlayerCareer   = "player_career"
	OpAllTimeLeaders = "all_time_leaders"
)

// Provider is the remote source of player data
type Provider interface {
	AllPlayers(ctx context.Context, season string) ([]models.Player, error)
	PlayerCareerStats(ctx context.Context, playerID int64) ([]models.CareerSeason, error)
	AllTimeLeaders(ctx context.Context) ([]models.AllTimeLeader, error)
}

// Config configures a Downloader
type Config struct {
	Season      string
	Concurrency int
}

// Downloader writes PLAYER_LIST_ACTIVE, PLAYER_LIST_INACTIVE, PLAYERS_INACTIVE
// and ALLTIMELEADERS. Every table is replaced as a whole.
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
	return &Downloader{provider: provider, store: store, retrier: retrier, cfg: cfg}
}

// ListResult counts the players written to each list
type ListResult struct {
	Active   int
	Inactive int
}

// Lists replaces the active and inactive player lists
func (d *Downloader) Lists(ctx context.Context) (res *ListResult, err error) {
	defer d.record("player_lists", time.Now(), &err)

	active, inactive, err := d.players(ctx)
	if err != nil {
		return nil, err
	}

	err = d.store.InTx(ctx, func(tx storage.Tx) error {
		if _, err := storage.Replace(ctx, tx, storage.PlayerListActive, storage.PlayerRows(active)); err != nil {
			return err
		}
		_, err := storage.Replace(ctx, tx, storage.PlayerListInactive, storage.PlayerRows(inactive))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("persist player lists: %w", err)
	}

	metrics.RecordRowsIngested(storage.PlayerListActive.Name, int64(len(active)))
	metrics.RecordRowsIngested(storage.PlayerListInactive.Name, int64(len(inactive)))
	log.Info().
		Int("active", len(active)).
		Int("inactive", len(inactive)).
		Msg("Updated player lists")

	return &ListResult{Active: len(active), Inactive: len(inactive)}, nil
}

// InactiveCareers replaces PLAYERS_INACTIVE with one row per career season of
// every inactive player, newest list entries first. A player without any
// season keeps a single row with null statistics.
func (d *Downloader) InactiveCareers(ctx context.Context) (n int, err error) {
	defer d.record("inactive_careers", time.Now(), &err)

	_, inactive, err := d.players(ctx)
	if err != nil {
		return 0, err
	}

	queue := make([]models.Player, 0, len(inactive))
	seen := make(map[int64]struct{}, len(inactive))
	for i := len(inactive) - 1; i >= 0; i-- {
		p := inactive[i]
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		queue = append(queue, p)
	}

	perPlayer := make([][]models.InactivePlayerSeason, len(queue))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for i, p := range queue {
		g.Go(func() error {
			seasons, err := fetcher.Do(gctx, d.retrier, OpPlayerCareer, 0, func(ctx context.Context) ([]models.CareerSeason, error) {
				return d.provider.PlayerCareerStats(ctx, p.ID)
			})
			if err != nil {
				return fmt.Errorf("player %d: %w", p.ID, err)
			}
			perPlayer[i] = careerRows(p, seasons)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var rows []models.InactivePlayerSeason
	for _, r := range perPlayer {
		rows = append(rows, r...)
	}

	err = d.store.InTx(ctx, func(tx storage.Tx) error {
		_, err := storage.Replace(ctx, tx, storage.PlayersInactive, storage.InactivePlayerRows(rows))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("persist inactive careers: %w", err)
	}

	metrics.RecordRowsIngested(storage.PlayersInactive.Name, int64(len(rows)))
	log.Info().
		Int("players", len(queue)).
		Int("rows", len(rows)).
		Msg("Updated inactive player careers")

	return len(rows), nil
}

// AllTimeLeaders replaces ALLTIMELEADERS with the current leader grids
func (d *Downloader) AllTimeLeaders(ctx context.Context) (n int, err error) {
	defer d.record("all_time_leaders", time.Now(), &err)

	leaders, err := fetcher.Do(ctx, d.retrier, OpAllTimeLeaders, 0, d.provider.AllTimeLeaders)
	if err != nil {
		return 0, err
	}

	err = d.store.InTx(ctx, func(tx storage.Tx) error {
		_, err := storage.Replace(ctx, tx, storage.AllTimeLeaders, storage.LeaderRows(leaders))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("persist all-time leaders: %w", err)
	}

	metrics.RecordRowsIngested(storage.AllTimeLeaders.Name, int64(len(leaders)))
	log.Info().Int("rows", len(leaders)).Msg("Updated all-time leaders")

	return len(leaders), nil
}

// players fetches the full player list split by roster status, keeping list order
func (d *Downloader) players(ctx context.Context) (active, inactive []models.Player, err error) {
	all, err := fetcher.Do(ctx, d.retrier, OpPlayerList, 0, func(ctx context.Context) ([]models.Player, error) {
		return d.provider.AllPlayers(ctx, d.cfg.Season)
	})
	if err != nil {
		return nil, nil, err
	}
	for _, p := range all {
		if p.IsActive {
			active = append(active, p)
		} else {
			inactive = append(inactive, p)
		}
	}
	return active, inactive, nil
}

func (d *Downloader) record(syncType string, start time.Time, err *error) {
	status := "success"
	if *err != nil {
		status = "error"
		metrics.RecordError("players", "sync")
	}
	metrics.RecordSync(syncType, status, time.Since(start).Seconds())
}

func careerRows(p models.Player, seasons []models.CareerSeason) []models.InactivePlayerSeason {
	if len(seasons) == 0 {
		return []models.InactivePlayerSeason{{Player: p}}
	}
	out := make([]models.InactivePlayerSeason, len(seasons))
	for i := range seasons {
		out[i] = models.InactivePlayerSeason{Player: p, Season: &seasons[i]}
	}
	return out
}
