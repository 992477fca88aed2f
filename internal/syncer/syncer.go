// Package syncer runs one game synchronization: it picks full or incremental
// mode from the stored checkpoint, fetches, merges, and persists the rows
// together with the advanced checkpoint in a single transaction.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nbadata/ingestion/internal/merge"
	"nbadata/ingestion/internal/metrics"
	"nbadata/ingestion/internal/models"
	"nbadata/ingestion/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Mode is the sub-mode chosen by DETERMINE_MODE
type Mode string

const (
	ModeFull        Mode = "FULL"
	ModeIncremental Mode = "INCREMENTAL"
)

// State is a step of a sync run
type State string

const (
	StateDetermineMode     State = "DETERMINE_MODE"
	StateFetch             State = "FETCH"
	StateMerge             State = "MERGE"
	StatePersist           State = "PERSIST"
	StateAdvanceCheckpoint State = "ADVANCE_CHECKPOINT"
	StateDone              State = "DONE"
)

// Summary line layouts
const (
	TimestampLayout = "01/02/2006, 15:04:05"
	DateLayout      = "01/02/2006"
)

// CheckpointPolicy decides the date the checkpoint advances to
type CheckpointPolicy string

const (
	// CheckpointYesterday advances to the day before the run
	CheckpointYesterday CheckpointPolicy = "yesterday"
	// CheckpointLatestGame advances to the latest fetched game date, never past yesterday
	CheckpointLatestGame CheckpointPolicy = "latest-game"
)

// ParseCheckpointPolicy parses a policy name; the empty string means CheckpointYesterday
func ParseCheckpointPolicy(s string) (CheckpointPolicy, error) {
	switch CheckpointPolicy(s) {
	case "", CheckpointYesterday:
		return CheckpointYesterday, nil
	case CheckpointLatestGame:
		return CheckpointLatestGame, nil
	default:
		return "", fmt.Errorf("unknown checkpoint policy %q", s)
	}
}

// GameFetcher retrieves team game rows
type GameFetcher interface {
	FetchAllTeams(ctx context.Context, teamIDs []int64) ([]models.TeamGameRow, error)
	FetchSince(ctx context.Context, date time.Time) ([]models.TeamGameRow, error)
}

// Roster lists the teams fetched by a full backfill
type Roster interface {
	TeamIDs() []int64
}

// PersistError wraps a failed write; nothing from the run was committed
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist failed, checkpoint not advanced: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Config configures a Syncer
type Config struct {
	KeepPolicy       merge.KeepPolicy
	CheckpointPolicy CheckpointPolicy
	// Now returns the run time; defaults to time.Now
	Now func() time.Time
}

// Result describes a completed run
type Result struct {
	RunID    string
	Mode     Mode
	RanAt    time.Time
	Start    time.Time // first date fetched; zero for a full backfill
	TeamRows int
	Deferred int
	Games    int
	Through  time.Time
}

// Summary returns the one-line run report
func (r *Result) Summary() string {
	return fmt.Sprintf("%s: Added %d games, up to date through %s",
		r.RanAt.Format(TimestampLayout), r.Games, r.Through.Format(DateLayout))
}

// Syncer orchestrates game synchronization runs
type Syncer struct {
	store   storage.Store
	fetcher GameFetcher
	roster  Roster
	cfg     Config
}

// New creates a Syncer. The store is owned by the caller.
func New(store storage.Store, fetcher GameFetcher, roster Roster, cfg Config) *Syncer {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CheckpointPolicy == "" {
		cfg.CheckpointPolicy = CheckpointYesterday
	}
	return &Syncer{store: store, fetcher: fetcher, roster: roster, cfg: cfg}
}

// Run executes DETERMINE_MODE through DONE. On any error the store is left
// as it was before the run.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), RanAt: s.cfg.Now()}
	logger := log.With().Str("run_id", res.RunID).Logger()

	err := s.run(ctx, res, logger)

	status := "success"
	if err != nil {
		status = "error"
		metrics.RecordError("syncer", errorType(err))
	}
	metrics.RecordSync("games", status, time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Syncer) run(ctx context.Context, res *Result, logger zerolog.Logger) error {
	yesterday := storage.DateOnly(res.RanAt).AddDate(0, 0, -1)

	transition(logger, StateDetermineMode)
	previous, err := s.store.ReadCheckpoint(ctx, storage.DatasetGames)
	switch {
	case err == nil:
		res.Mode = ModeIncremental
		res.Start = previous.AddDate(0, 0, 1)
	case errors.Is(err, storage.ErrCheckpointNotFound):
		res.Mode = ModeFull
	default:
		logger.Warn().Err(err).Msg("Failed to read checkpoint, running full backfill")
		res.Mode = ModeFull
	}
	logger.Info().
		Str("mode", string(res.Mode)).
		Time("start", res.Start).
		Msg("Sync mode determined")

	transition(logger, StateFetch)
	var rows []models.TeamGameRow
	if res.Mode == ModeIncremental {
		rows, err = s.fetcher.FetchSince(ctx, res.Start)
	} else {
		rows, err = s.fetcher.FetchAllTeams(ctx, s.roster.TeamIDs())
	}
	if err != nil {
		return fmt.Errorf("fetch %s: %w", res.Mode, err)
	}

	res.Through = s.nextCheckpoint(res.Mode, rows, previous, yesterday)
	rows, res.Deferred = deferAfter(rows, res.Through)
	res.TeamRows = len(rows)
	if res.Deferred > 0 {
		logger.Info().
			Int("rows", res.Deferred).
			Time("through", res.Through).
			Msg("Deferring rows dated after the new checkpoint to the next run")
	}

	transition(logger, StateMerge)
	merged, err := merge.Merge(rows, s.cfg.KeepPolicy)
	if err != nil {
		return err
	}
	res.Games = len(merged)

	transition(logger, StatePersist)
	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.Append(ctx, storage.UnmergedGames, storage.GameRows(rows)); err != nil {
			return err
		}
		if _, err := tx.Append(ctx, storage.MergedGames, storage.MergedRows(merged)); err != nil {
			return err
		}
		transition(logger, StateAdvanceCheckpoint)
		return tx.WriteCheckpoint(ctx, storage.DatasetGames, res.Through)
	})
	if err != nil {
		return &PersistError{Err: err}
	}

	metrics.RecordRowsIngested(storage.UnmergedGames.Name, int64(len(rows)))
	metrics.RecordRowsIngested(storage.MergedGames.Name, int64(len(merged)))
	metrics.RecordCheckpoint(storage.DatasetGames, res.Through)

	transition(logger, StateDone)
	logger.Info().
		Str("mode", string(res.Mode)).
		Int("team_rows", res.TeamRows).
		Int("games", res.Games).
		Time("through", res.Through).
		Msg("Sync complete")

	return nil
}

// nextCheckpoint applies the checkpoint policy. It never returns a date after yesterday.
func (s *Syncer) nextCheckpoint(mode Mode, rows []models.TeamGameRow, previous, yesterday time.Time) time.Time {
	if s.cfg.CheckpointPolicy != CheckpointLatestGame {
		return yesterday
	}
	latest, ok := models.MaxGameDate(rows)
	if !ok {
		if mode == ModeIncremental {
			return previous
		}
		return yesterday
	}
	latest = storage.DateOnly(latest)
	if latest.After(yesterday) {
		return yesterday
	}
	return latest
}

// deferAfter drops rows dated after through; the next run fetches from through+1
func deferAfter(rows []models.TeamGameRow, through time.Time) ([]models.TeamGameRow, int) {
	kept := rows[:0:0]
	for _, r := range rows {
		if storage.DateOnly(r.GameDate).After(through) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(rows) - len(kept)
}

func transition(logger zerolog.Logger, state State) {
	logger.Debug().Str("state", string(state)).Msg("Sync state")
}

func errorType(err error) string {
	var persist *PersistError
	switch {
	case errors.As(err, &persist):
		return "persist"
	case errors.Is(err, merge.ErrInvalidKeepPolicy):
		return "invalid_configuration"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "fetch"
	}
}
