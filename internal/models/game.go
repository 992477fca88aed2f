package models

import (
	"database/sql"
	"strings"
	"time"
)

// GameDateLayout is the date encoding the stats provider uses for GAME_DATE.
const GameDateLayout = "2006-01-02"

// Matchup markers used by the provider in the MATCHUP column.
const (
	HomeMarker = " vs. "
	AwayMarker = " @ "
)

// BoxScore holds one team's box-score line for a single game
type BoxScore struct {
	Minutes   int             `json:"MIN"`
	Points    int             `json:"PTS"`
	FGM       int             `json:"FGM"`
	FGA       int             `json:"FGA"`
	FGPct     sql.NullFloat64 `json:"FG_PCT"`
	FG3M      int             `json:"FG3M"`
	FG3A      int             `json:"FG3A"`
	FG3Pct    sql.NullFloat64 `json:"FG3_PCT"`
	FTM       int             `json:"FTM"`
	FTA       int             `json:"FTA"`
	FTPct     sql.NullFloat64 `json:"FT_PCT"`
	OREB      int             `json:"OREB"`
	DREB      int             `json:"DREB"`
	REB       int             `json:"REB"`
	AST       int             `json:"AST"`
	STL       int             `json:"STL"`
	BLK       int             `json:"BLK"`
	TOV       int             `json:"TOV"`
	PF        int             `json:"PF"`
	PlusMinus sql.NullFloat64 `json:"PLUS_MINUS"`
}

// TeamSide is the per-team half of a game: identity, matchup text, result and box score
type TeamSide struct {
	TeamID           int64  `json:"TEAM_ID"`
	TeamAbbreviation string `json:"TEAM_ABBREVIATION"`
	TeamName         string `json:"TEAM_NAME"`
	Matchup          string `json:"MATCHUP"`
	WinLoss          string `json:"WL"`
	BoxScore
}

// IsHome reports whether the matchup marks this team as the home side
func (s TeamSide) IsHome() bool {
	return strings.Contains(s.Matchup, HomeMarker)
}

// IsAway reports whether the matchup marks this team as the away side
func (s TeamSide) IsAway() bool {
	return strings.Contains(s.Matchup, AwayMarker)
}

// IsWinner reports whether this team won the game
func (s TeamSide) IsWinner() bool {
	return s.WinLoss == "W"
}

// IsLoser reports whether this team lost the game
func (s TeamSide) IsLoser() bool {
	return s.WinLoss == "L"
}

// TeamGameRow is one row per (team, game) pair, as returned by the game finder.
// Identity key is (TeamID, GameID).
type TeamGameRow struct {
	SeasonID string    `json:"SEASON_ID"`
	GameID   string    `json:"GAME_ID"`
	GameDate time.Time `json:"GAME_DATE"`
	TeamSide
}

// GameKey is the self-join key shared by both rows of a game
type GameKey struct {
	SeasonID string
	GameID   string
	GameDate string
}

// Key returns the join key for the row
func (r TeamGameRow) Key() GameKey {
	return GameKey{
		SeasonID: r.SeasonID,
		GameID:   r.GameID,
		GameDate: r.GameDate.Format(GameDateLayout),
	}
}

// MergedGameRow is one row per game: the join keys plus both sides.
// A.TeamID != B.TeamID always holds.
type MergedGameRow struct {
	SeasonID string    `json:"SEASON_ID"`
	GameID   string    `json:"GAME_ID"`
	GameDate time.Time `json:"GAME_DATE"`
	A        TeamSide  `json:"A"`
	B        TeamSide  `json:"B"`
}

// Sides reflattens a merged row into its two team rows, A first
func (m MergedGameRow) Sides() (TeamGameRow, TeamGameRow) {
	a := TeamGameRow{SeasonID: m.SeasonID, GameID: m.GameID, GameDate: m.GameDate, TeamSide: m.A}
	b := TeamGameRow{SeasonID: m.SeasonID, GameID: m.GameID, GameDate: m.GameDate, TeamSide: m.B}
	return a, b
}

// sideColumns is the storage layout of a TeamSide, in Values order
var sideColumns = []string{
	"TEAM_ID", "TEAM_ABBREVIATION", "TEAM_NAME", "MATCHUP", "WL",
	"MIN", "PTS", "FGM", "FGA", "FG_PCT", "FG3M", "FG3A", "FG3_PCT",
	"FTM", "FTA", "FT_PCT", "OREB", "DREB", "REB", "AST", "STL", "BLK",
	"TOV", "PF", "PLUS_MINUS",
}

var keyColumns = []string{"SEASON_ID", "GAME_ID", "GAME_DATE"}

// UnmergedColumns returns the column layout of ALL_GAMES_UNMERGED
func UnmergedColumns() []string {
	cols := make([]string, 0, len(keyColumns)+len(sideColumns))
	cols = append(cols, keyColumns...)
	return append(cols, sideColumns...)
}

// MergedColumns returns the column layout of ALL_GAMES_MERGED
func MergedColumns() []string {
	cols := make([]string, 0, len(keyColumns)+2*len(sideColumns))
	cols = append(cols, keyColumns...)
	for _, suffix := range []string{"_A", "_B"} {
		for _, c := range sideColumns {
			cols = append(cols, c+suffix)
		}
	}
	return cols
}

// Values returns the side's column values in sideColumns order
func (s TeamSide) Values() []any {
	return []any{
		s.TeamID, s.TeamAbbreviation, s.TeamName, s.Matchup, NullableString(s.WinLoss),
		s.Minutes, s.Points, s.FGM, s.FGA, NullableFloat(s.FGPct), s.FG3M, s.FG3A, NullableFloat(s.FG3Pct),
		s.FTM, s.FTA, NullableFloat(s.FTPct), s.OREB, s.DREB, s.REB, s.AST, s.STL, s.BLK,
		s.TOV, s.PF, NullableFloat(s.PlusMinus),
	}
}

// Values returns the row's values in UnmergedColumns order
func (r TeamGameRow) Values() []any {
	vals := make([]any, 0, len(keyColumns)+len(sideColumns))
	vals = append(vals, r.SeasonID, r.GameID, r.GameDate)
	return append(vals, r.TeamSide.Values()...)
}

// Values returns the row's values in MergedColumns order
func (m MergedGameRow) Values() []any {
	vals := make([]any, 0, len(keyColumns)+2*len(sideColumns))
	vals = append(vals, m.SeasonID, m.GameID, m.GameDate)
	vals = append(vals, m.A.Values()...)
	return append(vals, m.B.Values()...)
}

// NullableFloat converts a NullFloat64 into a driver value (nil when invalid)
func NullableFloat(v sql.NullFloat64) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

// NullableString maps the empty string to NULL
func NullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// MaxGameDate returns the latest game date among rows, and false for no rows
func MaxGameDate(rows []TeamGameRow) (time.Time, bool) {
	var latest time.Time
	for _, r := range rows {
		if r.GameDate.After(latest) {
			latest = r.GameDate
		}
	}
	return latest, !latest.IsZero()
}
