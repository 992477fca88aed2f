// Package cache keeps per-team game histories in Redis so a full backfill
// that failed part way does not download the same teams again.
package cache

import (
	"context"
	"fmt"
	"time"

	"nbadata/ingestion/internal/fetcher"
	"nbadata/ingestion/internal/metrics"
	"nbadata/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// KeyPrefix namespaces every key written by this package
const KeyPrefix = "nbadata:"

// Store is a JSON key-value cache
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Provider wraps a fetcher.Provider, caching GamesForTeam results.
// GamesSince always goes to the upstream provider.
type Provider struct {
	upstream fetcher.Provider
	store    Store
	ttl      time.Duration
}

var _ fetcher.Provider = (*Provider)(nil)

// NewProvider creates a caching provider
func NewProvider(upstream fetcher.Provider, store Store, ttl time.Duration) *Provider {
	return &Provider{upstream: upstream, store: store, ttl: ttl}
}

// TeamGamesKey is the cache key of one team's game history
func TeamGamesKey(teamID int64) string {
	return fmt.Sprintf("%steamgames:%d", KeyPrefix, teamID)
}

// GamesForTeam serves the team history from cache when present.
// Cache failures are logged and fall through to the upstream provider.
func (p *Provider) GamesForTeam(ctx context.Context, teamID int64) ([]models.TeamGameRow, error) {
	key := TeamGamesKey(teamID)

	var rows []models.TeamGameRow
	hit, err := p.store.Get(ctx, key, &rows)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	}
	if hit {
		metrics.RecordCacheHit()
		return rows, nil
	}
	metrics.RecordCacheMiss()

	rows, err = p.upstream.GamesForTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if err := p.store.Set(ctx, key, rows, p.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return rows, nil
}

// GamesSince passes through to the upstream provider
func (p *Provider) GamesSince(ctx context.Context, date time.Time, leagueID string) ([]models.TeamGameRow, error) {
	return p.upstream.GamesSince(ctx, date, leagueID)
}
