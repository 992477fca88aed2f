package models

import "database/sql"

// Player is one entry of the static player list
type Player struct {
	ID        int64  `json:"id"`
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `json:"is_active"`
}

// PlayerListColumns returns the column layout of PLAYER_LIST_ACTIVE and PLAYER_LIST_INACTIVE
func PlayerListColumns() []string {
	return []string{"id", "full_name", "first_name", "last_name", "is_active"}
}

// Values returns the player in PlayerListColumns order
func (p Player) Values() []any {
	return []any{p.ID, p.FullName, p.FirstName, p.LastName, p.IsActive}
}

// CareerSeason is one regular season line of a player's career totals
type CareerSeason struct {
	PlayerID         int64
	SeasonID         string
	LeagueID         string
	TeamID           int64
	TeamAbbreviation string
	PlayerAge        sql.NullFloat64
	GP               int
	GS               int
	Minutes          sql.NullFloat64
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
	STL              int
	BLK              int
	TOV              int
	PF               int
	PTS              int
}

// PerGame returns total divided by games played, null for a season without games
func (s CareerSeason) PerGame(total int) sql.NullFloat64 {
	if s.GP == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(total) / float64(s.GP), Valid: true}
}

// InactivePlayerSeason joins a list entry with one of its career seasons.
// Season is nil for a player without any regular season line.
type InactivePlayerSeason struct {
	Player Player
	Season *CareerSeason
}

// InactivePlayerColumns returns the column layout of PLAYERS_INACTIVE
func InactivePlayerColumns() []string {
	return []string{
		"PLAYER_ID", "SEASON_ID", "LEAGUE_ID", "TEAM_ID", "TEAM_ABBREVIATION", "PLAYER_AGE",
		"GP", "GS", "MIN", "FGM", "FGA", "FG_PCT", "FG3M", "FG3A", "FG3_PCT", "FTM", "FTA", "FT_PCT",
		"OREB", "DREB", "REB", "AST", "STL", "BLK", "TOV", "PF", "PTS", "PPG", "RPG", "APG",
		"full_name", "first_name", "last_name", "is_active",
	}
}

// Values returns the row in InactivePlayerColumns order; stat columns are NULL without a season
func (r InactivePlayerSeason) Values() []any {
	p := r.Player
	s := r.Season
	if s == nil {
		out := make([]any, 0, len(InactivePlayerColumns()))
		out = append(out, p.ID)
		for len(out) < len(InactivePlayerColumns())-4 {
			out = append(out, nil)
		}
		return append(out, p.FullName, p.FirstName, p.LastName, p.IsActive)
	}
	return []any{
		p.ID, s.SeasonID, s.LeagueID, s.TeamID, s.TeamAbbreviation, NullableFloat(s.PlayerAge),
		s.GP, s.GS, NullableFloat(s.Minutes), s.FGM, s.FGA, NullableFloat(s.FGPct),
		s.FG3M, s.FG3A, NullableFloat(s.FG3Pct), s.FTM, s.FTA, NullableFloat(s.FTPct),
		s.OREB, s.DREB, s.REB, s.AST, s.STL, s.BLK, s.TOV, s.PF, s.PTS,
		NullableFloat(s.PerGame(s.PTS)), NullableFloat(s.PerGame(s.REB)), NullableFloat(s.PerGame(s.AST)),
		p.FullName, p.FirstName, p.LastName, p.IsActive,
	}
}

// AllTimeLeader is one ranked entry of an all-time leaders grid
type AllTimeLeader struct {
	PlayerID   int64
	PlayerName string
	Value      float64
	Rank       int
	IsActive   bool
	// Type is the ranked statistic (PTS, FGPCT, ...)
	Type string
}

// AllTimeLeaderColumns returns the column layout of ALLTIMELEADERS
func AllTimeLeaderColumns() []string {
	return []string{"PLAYER_ID", "PLAYER_NAME", "VALUE", "RANK", "IS_ACTIVE", "TYPE"}
}

// Values returns the leader in AllTimeLeaderColumns order
func (l AllTimeLeader) Values() []any {
	return []any{l.PlayerID, l.PlayerName, l.Value, l.Rank, l.IsActive, l.Type}
}
