package stats

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"nbadata/ingestion/internal/fetcher"
	"nbadata/ingestion/internal/models"
	"nbadata/ingestion/internal/storage"
	"nbadata/ingestion/internal/storage/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu          sync.Mutex
	seasonCalls []string
	shotCalls   int
	failSeason  string
	flaky       int
}

func (p *fakeProvider) LeagueDashPlayerStats(ctx context.Context, season string) ([]models.LeaguePlayerStat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seasonCalls = append(p.seasonCalls, season)
	if season == p.failSeason {
		return nil, errors.New("bad gateway")
	}
	return []models.LeaguePlayerStat{
		{PlayerID: 1, TeamID: 10, PlayerName: "One"},
		{PlayerID: 2, TeamID: 20, PlayerName: "Two"},
	}, nil
}

func (p *fakeProvider) PlayerDashPtShots(ctx context.Context, teamID, playerID int64, season string) ([]models.ShotProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shotCalls++
	if p.flaky > 0 {
		p.flaky--
		return nil, errors.New("timeout")
	}
	return []models.ShotProfile{
		{Season: season, PlayerID: playerID, TeamID: teamID, Category: models.ShotOverall, Range: "Overall"},
		{Season: season, PlayerID: playerID, TeamID: teamID, Category: models.ShotType, Range: "Pull Ups"},
	}, nil
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "nba.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newDownloader(p Provider, store storage.Store) *Downloader {
	retrier := fetcher.NewRetrier(fetcher.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, nil)
	return NewDownloader(p, store, retrier, Config{
		CurrentSeason:  "2022-23",
		PastStart:      2019,
		PastEnd:        2021,
		ShotsPastStart: 2020,
		Concurrency:    2,
		Now:            func() time.Time { return time.Date(2023, 4, 10, 6, 0, 0, 0, time.UTC) },
	})
}

func count(t *testing.T, store storage.Store, table storage.Table) int64 {
	t.Helper()
	n, err := store.Count(context.Background(), table)
	require.NoError(t, err)
	return n
}

func TestSeasons(t *testing.T) {
	assert.Equal(t, []string{"1996-97", "1997-98", "1998-99", "1999-00"}, Seasons(1996, 2000))
	assert.Equal(t, []string{"2022-23"}, Seasons(2022, 2023))
	assert.Empty(t, Seasons(2021, 2021))
}

func TestRun_BackfillsThenUpdatesCurrent(t *testing.T) {
	store := openStore(t)
	p := &fakeProvider{flaky: 1}
	d := newDownloader(p, store)

	res, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Backfilled)
	assert.Equal(t, 4, res.PastStats, "two seasons, two players")
	assert.Equal(t, 4, res.PastShots, "one shot season, two players, two rows")
	assert.Equal(t, 2, res.CurrentStats)
	assert.Equal(t, 4, res.CurrentShots)
	assert.Equal(t, []string{"2019-20", "2020-21", "2022-23"}, p.seasonCalls)

	assert.Equal(t, int64(4), count(t, store, storage.LeaguePlayerStatsPast))
	assert.Equal(t, int64(4), count(t, store, storage.ShotProfilesPast))
	assert.Equal(t, int64(2), count(t, store, storage.LeaguePlayerStatsCurrent))
	assert.Equal(t, int64(4), count(t, store, storage.ShotProfilesCurrent))

	cp, err := store.ReadCheckpoint(context.Background(), storage.DatasetStats)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 4, 9, 0, 0, 0, 0, time.UTC), cp)
}

func TestRun_SkipsBackfillWhenPastExists(t *testing.T) {
	store := openStore(t)
	p := &fakeProvider{}
	d := newDownloader(p, store)

	_, err := d.Run(context.Background())
	require.NoError(t, err)

	p.seasonCalls = nil
	res, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Backfilled)
	assert.Equal(t, []string{"2022-23"}, p.seasonCalls)
	assert.Equal(t, int64(2), count(t, store, storage.LeaguePlayerStatsCurrent), "current season is replaced, not appended")
	assert.Equal(t, int64(4), count(t, store, storage.LeaguePlayerStatsPast))
}

func TestRun_ExhaustedSeasonWritesNothing(t *testing.T) {
	store := openStore(t)
	p := &fakeProvider{failSeason: "2020-21"}
	d := newDownloader(p, store)

	_, err := d.Run(context.Background())
	require.Error(t, err)

	var exhausted *fetcher.FetchExhaustedError
	assert.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)

	assert.Zero(t, count(t, store, storage.LeaguePlayerStatsPast))
	_, err = store.ReadCheckpoint(context.Background(), storage.DatasetStats)
	assert.ErrorIs(t, err, storage.ErrCheckpointNotFound)
}
