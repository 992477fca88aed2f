package models

import "database/sql"

// LeaguePlayerStat is one player's season totals for one team
type LeaguePlayerStat struct {
	Season           string
	Current          bool
	PlayerID         int64
	PlayerName       string
	TeamID           int64
	TeamAbbreviation string
	Age              sql.NullFloat64
	GP               int
	W                int
	L                int
	WPct             sql.NullFloat64
	Minutes          float64
	FGM              int
	FGA              int
	FGPct            sql.NullFloat64
	FG3M             int
	FG3A             int
	FG3Pct           sql.NullFloat64
	FTM              int
	FTA              int
	FTPct            sql.NullFloat64
	OREB             int
	DREB             int
	REB              int
	AST              int
	TOV              int
	STL              int
	BLK              int
	PF               int
	PTS              int
	PlusMinus        float64
}

// LeaguePlayerStatColumns returns the column layout of the LEAGUE_PLAYER_STATS tables
func LeaguePlayerStatColumns() []string {
	return []string{
		"SEASON", "SEASON_CURRENT", "PLAYER_ID", "PLAYER_NAME", "TEAM_ID", "TEAM_ABBREVIATION",
		"AGE", "GP", "W", "L", "W_PCT", "MIN", "FGM", "FGA", "FG_PCT", "FG3M", "FG3A", "FG3_PCT",
		"FTM", "FTA", "FT_PCT", "OREB", "DREB", "REB", "AST", "TOV", "STL", "BLK", "PF", "PTS",
		"PLUS_MINUS",
	}
}

// Values returns the stat line in LeaguePlayerStatColumns order
func (s LeaguePlayerStat) Values() []any {
	return []any{
		s.Season, s.Current, s.PlayerID, s.PlayerName, s.TeamID, s.TeamAbbreviation,
		NullableFloat(s.Age), s.GP, s.W, s.L, NullableFloat(s.WPct), s.Minutes, s.FGM, s.FGA,
		NullableFloat(s.FGPct), s.FG3M, s.FG3A, NullableFloat(s.FG3Pct),
		s.FTM, s.FTA, NullableFloat(s.FTPct), s.OREB, s.DREB, s.REB, s.AST, s.TOV, s.STL, s.BLK,
		s.PF, s.PTS, s.PlusMinus,
	}
}

// Shot dashboard categories, in the order the provider returns the result sets
const (
	ShotOverall           = "OVERALL"
	ShotType              = "SHOT_TYPE"
	ShotClock             = "SHOT_CLOCK"
	ShotDribble           = "DRIBBLE"
	ShotClosestDefender   = "CLOSEST_DEFENDER"
	ShotClosestDefender10 = "CLOSEST_DEFENDER_10FT_PLUS"
	ShotTouchTime         = "TOUCH_TIME"
)

// ShotCategories lists the dashboard categories in result set order
var ShotCategories = []string{
	ShotOverall, ShotType, ShotClock, ShotDribble,
	ShotClosestDefender, ShotClosestDefender10, ShotTouchTime,
}

// ShotProfile is one row of a player's shooting dashboard
type ShotProfile struct {
	Season        string
	PlayerID      int64
	TeamID        int64
	Category      string
	Range         string
	GP            int
	FGAFrequency  sql.NullFloat64
	FGM           float64
	FGA           float64
	FGPct         sql.NullFloat64
	EFGPct        sql.NullFloat64
	FG2AFrequency sql.NullFloat64
	FG2M          float64
	FG2A          float64
	FG2Pct        sql.NullFloat64
	FG3AFrequency sql.NullFloat64
	FG3M          float64
	FG3A          float64
	FG3Pct        sql.NullFloat64
}

// ShotProfileColumns returns the column layout of the SHOT_PROFILES tables
func ShotProfileColumns() []string {
	return []string{
		"SEASON", "PLAYER_ID", "TEAM_ID", "CATEGORY", "RANGE", "GP",
		"FGA_FREQUENCY", "FGM", "FGA", "FG_PCT", "EFG_PCT",
		"FG2A_FREQUENCY", "FG2M", "FG2A", "FG2_PCT",
		"FG3A_FREQUENCY", "FG3M", "FG3A", "FG3_PCT",
	}
}

// Values returns the profile row in ShotProfileColumns order
func (p ShotProfile) Values() []any {
	return []any{
		p.Season, p.PlayerID, p.TeamID, p.Category, p.Range, p.GP,
		NullableFloat(p.FGAFrequency), p.FGM, p.FGA, NullableFloat(p.FGPct), NullableFloat(p.EFGPct),
		NullableFloat(p.FG2AFrequency), p.FG2M, p.FG2A, NullableFloat(p.FG2Pct),
		NullableFloat(p.FG3AFrequency), p.FG3M, p.FG3A, NullableFloat(p.FG3Pct),
	}
}
