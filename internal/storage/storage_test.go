package storage

import (
	"testing"
	"time"

	"nbadata/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTables_ColumnCountsMatchValues(t *testing.T) {
	row := models.TeamGameRow{SeasonID: "22022", GameID: "1", GameDate: time.Now()}
	merged := models.MergedGameRow{SeasonID: "22022", GameID: "1", GameDate: time.Now()}

	assert.Len(t, GameRows([]models.TeamGameRow{row})[0], len(UnmergedGames.Columns))
	assert.Len(t, MergedRows([]models.MergedGameRow{merged})[0], len(MergedGames.Columns))
	assert.Len(t, TeamRows([]models.Team{{ID: 1}})[0], len(TeamList.Columns))
	assert.Len(t, PlayerStatRows([]models.LeaguePlayerStat{{}})[0], len(LeaguePlayerStatsPast.Columns))
	assert.Len(t, ShotProfileRows([]models.ShotProfile{{}})[0], len(ShotProfilesPast.Columns))
	assert.Len(t, PlayerRows([]models.Player{{ID: 1}})[0], len(PlayerListActive.Columns))
	assert.Len(t, LeaderRows([]models.AllTimeLeader{{}})[0], len(AllTimeLeaders.Columns))
}

func TestInactivePlayerRows(t *testing.T) {
	player := models.Player{ID: 76001, FullName: "Alaa Abdelnaby", FirstName: "Alaa", LastName: "Abdelnaby"}
	season := &models.CareerSeason{PlayerID: 76001, SeasonID: "1990-91", GP: 43, PTS: 135, REB: 89, AST: 12}

	rows := InactivePlayerRows([]models.InactivePlayerSeason{
		{Player: player, Season: season},
		{Player: player},
	})
	cols := PlayersInactive.Columns
	col := func(name string) int {
		for i, c := range cols {
			if c == name {
				return i
			}
		}
		t.Fatalf("no column %s", name)
		return -1
	}

	assert.Len(t, rows[0], len(cols))
	assert.Len(t, rows[1], len(cols))

	assert.InDelta(t, 135.0/43, rows[0][col("PPG")], 1e-9)
	assert.InDelta(t, 89.0/43, rows[0][col("RPG")], 1e-9)
	assert.InDelta(t, 12.0/43, rows[0][col("APG")], 1e-9)
	assert.Equal(t, "Alaa Abdelnaby", rows[0][col("full_name")])

	assert.Equal(t, int64(76001), rows[1][col("PLAYER_ID")])
	assert.Nil(t, rows[1][col("SEASON_ID")])
	assert.Nil(t, rows[1][col("PPG")])
	assert.Equal(t, false, rows[1][col("is_active")])
}

func TestCareerSeason_PerGameWithoutGames(t *testing.T) {
	s := models.CareerSeason{GP: 0, PTS: 10}
	assert.False(t, s.PerGame(s.PTS).Valid)
}

func TestMergedColumns_Suffixes(t *testing.T) {
	cols := MergedGames.Columns
	assert.Equal(t, []string{"SEASON_ID", "GAME_ID", "GAME_DATE"}, cols[:3])
	assert.Contains(t, cols, "TEAM_ID_A")
	assert.Contains(t, cols, "TEAM_ID_B")
	assert.Contains(t, cols, "PLUS_MINUS_B")
	assert.NotContains(t, cols, "TEAM_ID")
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	in := time.Date(2023, 4, 9, 23, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2023, 4, 9, 0, 0, 0, 0, time.UTC), DateOnly(in))
}
