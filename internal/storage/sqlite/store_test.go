package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"nbadata/ingestion/internal/models"
	"nbadata/ingestion/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nba.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRows() []models.TeamGameRow {
	date := time.Date(2023, 4, 9, 0, 0, 0, 0, time.UTC)
	return []models.TeamGameRow{
		{SeasonID: "22022", GameID: "0022201221", GameDate: date, TeamSide: models.TeamSide{
			TeamID: 1610612747, TeamAbbreviation: "LAL", Matchup: "LAL vs. UTA", WinLoss: "W",
			BoxScore: models.BoxScore{Points: 128, FGPct: sql.NullFloat64{Float64: 0.522, Valid: true}},
		}},
		{SeasonID: "22022", GameID: "0022201221", GameDate: date, TeamSide: models.TeamSide{
			TeamID: 1610612762, TeamAbbreviation: "UTA", Matchup: "UTA @ LAL", WinLoss: "L",
			BoxScore: models.BoxScore{Points: 117},
		}},
	}
}

func TestReadCheckpoint_NotFound(t *testing.T) {
	store := openTempStore(t)

	_, err := store.ReadCheckpoint(context.Background(), storage.DatasetGames)
	assert.ErrorIs(t, err, storage.ErrCheckpointNotFound)
}

func TestWriteCheckpoint_RoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	date := time.Date(2023, 4, 9, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		return tx.WriteCheckpoint(ctx, storage.DatasetGames, date)
	}))
	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		return tx.WriteCheckpoint(ctx, storage.DatasetGames, date.AddDate(0, 0, 1))
	}))

	got, err := store.ReadCheckpoint(ctx, storage.DatasetGames)
	require.NoError(t, err)
	assert.Equal(t, date.AddDate(0, 0, 1), got)

	var raw string
	require.NoError(t, store.sqlDB.QueryRow(`SELECT "Date" FROM "Last_Updated" WHERE "Type" = 'game'`).Scan(&raw))
	assert.Equal(t, "04/10/2023", raw)

	var n int
	require.NoError(t, store.sqlDB.QueryRow(`SELECT COUNT(*) FROM "Last_Updated"`).Scan(&n))
	assert.Equal(t, 1, n, "checkpoint is upserted, not appended")

	_, err = store.ReadCheckpoint(ctx, storage.DatasetStats)
	assert.ErrorIs(t, err, storage.ErrCheckpointNotFound)
}

func TestAppend_StoresRows(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	rows := sampleRows()

	var written int64
	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		written, err = tx.Append(ctx, storage.UnmergedGames, storage.GameRows(rows))
		return err
	}))
	assert.Equal(t, int64(2), written)

	n, err := store.Count(ctx, storage.UnmergedGames)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var date string
	var pct sql.NullFloat64
	require.NoError(t, store.sqlDB.QueryRow(
		`SELECT "GAME_DATE", "FG_PCT" FROM "ALL_GAMES_UNMERGED" WHERE "TEAM_ID" = 1610612762`,
	).Scan(&date, &pct))
	assert.Equal(t, "2023-04-09", date)
	assert.False(t, pct.Valid)
}

func TestAppend_MergedLayout(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	rows := sampleRows()
	merged := []models.MergedGameRow{{
		SeasonID: rows[0].SeasonID, GameID: rows[0].GameID, GameDate: rows[0].GameDate,
		A: rows[0].TeamSide, B: rows[1].TeamSide,
	}}

	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		_, err := tx.Append(ctx, storage.MergedGames, storage.MergedRows(merged))
		return err
	}))

	var a, b string
	require.NoError(t, store.sqlDB.QueryRow(
		`SELECT "TEAM_ABBREVIATION_A", "TEAM_ABBREVIATION_B" FROM "ALL_GAMES_MERGED"`,
	).Scan(&a, &b))
	assert.Equal(t, "LAL", a)
	assert.Equal(t, "UTA", b)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.Append(ctx, storage.UnmergedGames, storage.GameRows(sampleRows())); err != nil {
			return err
		}
		if err := tx.WriteCheckpoint(ctx, storage.DatasetGames, time.Now()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := store.Count(ctx, storage.UnmergedGames)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.ReadCheckpoint(ctx, storage.DatasetGames)
	assert.ErrorIs(t, err, storage.ErrCheckpointNotFound)
}

func TestAppend_RejectsShortRow(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	err := store.InTx(ctx, func(tx storage.Tx) error {
		_, err := tx.Append(ctx, storage.TeamList, [][]any{{1, "only two"}})
		return err
	})
	assert.Error(t, err)
}

func TestReplace_TruncatesFirst(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	teams := []models.Team{{ID: 1, FullName: "A"}, {ID: 2, FullName: "B"}}

	for i := 0; i < 2; i++ {
		require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
			_, err := storage.Replace(ctx, tx, storage.TeamList, storage.TeamRows(teams))
			return err
		}))
	}

	n, err := store.Count(ctx, storage.TeamList)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestOpen_ReappliesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nba.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	var n int
	require.NoError(t, second.sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestParseCheckpoint(t *testing.T) {
	got, err := parseCheckpoint("04/09/2023")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 4, 9, 0, 0, 0, 0, time.UTC), got)

	got, err = parseCheckpoint("2023-04-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 4, 9, 0, 0, 0, 0, time.UTC), got)

	_, err = parseCheckpoint("yesterday")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "nba.db"))
	require.NoError(t, err)

	assert.NoError(t, store.Health(context.Background()))

	require.NoError(t, store.Close())
	assert.Error(t, store.Health(context.Background()))
}

func TestAppend_InactivePlayers(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	alaa := models.Player{ID: 76001, FullName: "Alaa Abdelnaby", FirstName: "Alaa", LastName: "Abdelnaby"}
	zaid := models.Player{ID: 76002, FullName: "Zaid Abdul-Aziz", FirstName: "Zaid", LastName: "Abdul-Aziz"}
	rows := []models.InactivePlayerSeason{
		{Player: alaa, Season: &models.CareerSeason{PlayerID: 76001, SeasonID: "1990-91", GP: 40, PTS: 120, REB: 80, AST: 20}},
		{Player: zaid},
	}

	err := store.InTx(ctx, func(tx storage.Tx) error {
		_, err := storage.Replace(ctx, tx, storage.PlayersInactive, storage.InactivePlayerRows(rows))
		return err
	})
	require.NoError(t, err)

	var ppg sql.NullFloat64
	var name string
	require.NoError(t, store.sqlDB.QueryRowContext(ctx,
		`SELECT "PPG", "full_name" FROM "PLAYERS_INACTIVE" WHERE "PLAYER_ID" = 76001`).Scan(&ppg, &name))
	assert.True(t, ppg.Valid)
	assert.InDelta(t, 3.0, ppg.Float64, 1e-9)
	assert.Equal(t, "Alaa Abdelnaby", name)

	require.NoError(t, store.sqlDB.QueryRowContext(ctx,
		`SELECT "PPG", "full_name" FROM "PLAYERS_INACTIVE" WHERE "PLAYER_ID" = 76002`).Scan(&ppg, &name))
	assert.False(t, ppg.Valid, "a player without seasons has no per-game stats")
	assert.Equal(t, "Zaid Abdul-Aziz", name)
}
