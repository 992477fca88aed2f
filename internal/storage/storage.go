// Package storage describes the local mirror: table layouts, the checkpoint
// contract, and the transactional store both backends implement.
package storage

import (
	"context"
	"errors"
	"time"

	"nbadata/ingestion/internal/models"
)

// ErrCheckpointNotFound is returned by ReadCheckpoint when no checkpoint row exists for a dataset
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpoint dataset names, stored in Last_Updated.Type
const (
	DatasetGames = "game"
	DatasetStats = "stats"
)

// CheckpointLayout is the text encoding of Last_Updated.Date
const CheckpointLayout = "01/02/2006"

// Table names a destination table and its column layout
type Table struct {
	Name    string
	Columns []string
}

// Tables of the mirror
var (
	UnmergedGames = Table{Name: "ALL_GAMES_UNMERGED", Columns: models.UnmergedColumns()}
	MergedGames   = Table{Name: "ALL_GAMES_MERGED", Columns: models.MergedColumns()}
	TeamList      = Table{Name: "TEAM_LIST", Columns: models.TeamListColumns()}

	LeaguePlayerStatsPast    = Table{Name: "LEAGUE_PLAYER_STATS_PAST", Columns: models.LeaguePlayerStatColumns()}
	LeaguePlayerStatsCurrent = Table{Name: "LEAGUE_PLAYER_STATS_CURRENT", Columns: models.LeaguePlayerStatColumns()}
	ShotProfilesPast         = Table{Name: "SHOT_PROFILES_PAST", Columns: models.ShotProfileColumns()}
	ShotProfilesCurrent      = Table{Name: "SHOT_PROFILES_CURRENT", Columns: models.ShotProfileColumns()}

	PlayerListActive   = Table{Name: "PLAYER_LIST_ACTIVE", Columns: models.PlayerListColumns()}
	PlayerListInactive = Table{Name: "PLAYER_LIST_INACTIVE", Columns: models.PlayerListColumns()}
	PlayersInactive    = Table{Name: "PLAYERS_INACTIVE", Columns: models.InactivePlayerColumns()}
	AllTimeLeaders     = Table{Name: "ALLTIMELEADERS", Columns: models.AllTimeLeaderColumns()}
)

// Tx is the write side of a store transaction. Nothing written through a Tx
// is visible to other readers until the enclosing InTx returns nil.
type Tx interface {
	// Append inserts rows (in t.Columns order) and returns the number written
	Append(ctx context.Context, t Table, rows [][]any) (int64, error)
	// Truncate removes every row of t
	Truncate(ctx context.Context, t Table) error
	// WriteCheckpoint upserts the checkpoint date of a dataset
	WriteCheckpoint(ctx context.Context, dataset string, date time.Time) error
}

// Store is a local mirror backend
type Store interface {
	// ReadCheckpoint returns the checkpoint date of a dataset, or ErrCheckpointNotFound
	ReadCheckpoint(ctx context.Context, dataset string) (time.Time, error)
	// InTx runs fn in one transaction, committing only if fn returns nil
	InTx(ctx context.Context, fn func(Tx) error) error
	// Count returns the number of rows in t
	Count(ctx context.Context, t Table) (int64, error)
	// Health reports whether the backend is reachable
	Health(ctx context.Context) error
	Close() error
}

// GameRows converts team rows into Append rows
func GameRows(rows []models.TeamGameRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}

// MergedRows converts merged rows into Append rows
func MergedRows(rows []models.MergedGameRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}

// TeamRows converts the team list into Append rows
func TeamRows(teams []models.Team) [][]any {
	out := make([][]any, len(teams))
	for i, t := range teams {
		out[i] = t.Values()
	}
	return out
}

// PlayerStatRows converts player stat lines into Append rows
func PlayerStatRows(stats []models.LeaguePlayerStat) [][]any {
	out := make([][]any, len(stats))
	for i, s := range stats {
		out[i] = s.Values()
	}
	return out
}

// ShotProfileRows converts shot profiles into Append rows
func ShotProfileRows(profiles []models.ShotProfile) [][]any {
	out := make([][]any, len(profiles))
	for i, p := range profiles {
		out[i] = p.Values()
	}
	return out
}

// PlayerRows converts player list entries into Append rows
func PlayerRows(players []models.Player) [][]any {
	out := make([][]any, len(players))
	for i, p := range players {
		out[i] = p.Values()
	}
	return out
}

// InactivePlayerRows converts career seasons into Append rows
func InactivePlayerRows(rows []models.InactivePlayerSeason) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}

// LeaderRows converts all-time leaders into Append rows
func LeaderRows(leaders []models.AllTimeLeader) [][]any {
	out := make([][]any, len(leaders))
	for i, l := range leaders {
		out[i] = l.Values()
	}
	return out
}

// Replace truncates t and appends rows in the same transaction
func Replace(ctx context.Context, tx Tx, t Table, rows [][]any) (int64, error) {
	if err := tx.Truncate(ctx, t); err != nil {
		return 0, err
	}
	return tx.Append(ctx, t, rows)
}

// DateOnly drops the clock part of t, keeping its calendar date in UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
