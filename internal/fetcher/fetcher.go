// Package fetcher pulls team game histories from the stats provider under a
// bounded retry policy, fetching every team at most once per run.
package fetcher

import (
	"context"
	"sync"
	"time"

	"nbadata/ingestion/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Operation names used in errors, logs and metrics
const (
	OpGamesForTeam = "games_for_team"
	OpGamesSince   = "games_since"
)

// Provider is the remote source of team game rows
type Provider interface {
	GamesForTeam(ctx context.Context, teamID int64) ([]models.TeamGameRow, error)
	GamesSince(ctx context.Context, date time.Time, leagueID string) ([]models.TeamGameRow, error)
}

// Config configures a Fetcher
type Config struct {
	Policy      Policy
	Concurrency int
	LeagueID    string
	// Retryable classifies provider errors; nil retries everything but cancellation
	Retryable func(error) bool
}

// Fetcher retrieves team game rows
type Fetcher struct {
	provider    Provider
	retrier     *Retrier
	concurrency int
	leagueID    string
}

// New creates a fetcher over provider
func New(provider Provider, cfg Config) *Fetcher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Fetcher{
		provider:    provider,
		retrier:     NewRetrier(cfg.Policy, cfg.Retryable),
		concurrency: cfg.Concurrency,
		leagueID:    cfg.LeagueID,
	}
}

// Retrier returns the fetcher's retrier so other downloads share its policy
func (f *Fetcher) Retrier() *Retrier {
	return f.retrier
}

// FetchAllTeams fetches the full history of every team in teamIDs. The work
// list is consumed last-in first-out; a team already present in the result is
// not fetched again. Any team that cannot be fetched fails the whole call.
func (f *Fetcher) FetchAllTeams(ctx context.Context, teamIDs []int64) ([]models.TeamGameRow, error) {
	start := time.Now()
	index := NewIndex()

	var (
		mu  sync.Mutex
		acc []models.TeamGameRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i := len(teamIDs) - 1; i >= 0; i-- {
		teamID := teamIDs[i]
		if !index.Claim(teamID) {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			rows, err := Do(gctx, f.retrier, OpGamesForTeam, teamID, func(ctx context.Context) ([]models.TeamGameRow, error) {
				return f.provider.GamesForTeam(ctx, teamID)
			})
			if err != nil {
				return err
			}

			index.Add(rows)
			mu.Lock()
			acc = append(acc, rows...)
			mu.Unlock()

			log.Debug().
				Int64("team_id", teamID).
				Int("rows", len(rows)).
				Msg("Fetched team game history")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info().
		Int("teams", index.Len()).
		Int("rows", len(acc)).
		Dur("duration", time.Since(start)).
		Msg("Fetched all team game histories")

	return acc, nil
}

// FetchSince fetches every league game on or after date
func (f *Fetcher) FetchSince(ctx context.Context, date time.Time) ([]models.TeamGameRow, error) {
	start := time.Now()

	rows, err := Do(ctx, f.retrier, OpGamesSince, 0, func(ctx context.Context) ([]models.TeamGameRow, error) {
		return f.provider.GamesSince(ctx, date, f.leagueID)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Time("since", date).
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("Fetched league games since checkpoint")

	return rows, nil
}
