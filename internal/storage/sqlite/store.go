// Package sqlite is the single-file SQLite backend of the local mirror.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"nbadata/ingestion/internal/metrics"
	"nbadata/ingestion/internal/models"
	"nbadata/ingestion/internal/storage"
	"nbadata/ingestion/internal/storage/sqlite/migrations"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed mirror persistence.
type Store struct {
	sqlDB *sql.DB
	path  string
}

var _ storage.Store = (*Store)(nil)

// Open opens (creating if needed) a mirror database file and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer; keeps every transaction on the same connection.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Info().Str("path", cleanPath).Msg("Opened SQLite store")
	return &Store{sqlDB: sqlDB, path: cleanPath}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Health pings the database file.
func (s *Store) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite health check failed: %w", err)
	}
	return nil
}

// ReadCheckpoint returns the checkpoint date stored for dataset.
func (s *Store) ReadCheckpoint(ctx context.Context, dataset string) (time.Time, error) {
	var raw string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT "Date" FROM "Last_Updated" WHERE "Type" = ? LIMIT 1`, dataset,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, storage.ErrCheckpointNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read checkpoint %s: %w", dataset, err)
	}
	return parseCheckpoint(raw)
}

// InTx runs fn inside one SQLite transaction.
func (s *Store) InTx(ctx context.Context, fn func(storage.Tx) error) (err error) {
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error().Err(rbErr).Msg("Failed to roll back transaction")
			}
		}
	}()

	if err = fn(&tx{sqlTx: sqlTx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Count returns the number of rows in t.
func (s *Store) Count(ctx context.Context, t storage.Table) (int64, error) {
	var n int64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+quote(t.Name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}
	return n, nil
}

type tx struct {
	sqlTx *sql.Tx
}

// Append inserts rows through one prepared statement.
func (t *tx) Append(ctx context.Context, table storage.Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	start := time.Now()

	cols := make([]string, len(table.Columns))
	marks := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = quote(c)
		marks[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))

	stmt, err := t.sqlTx.PrepareContext(ctx, query)
	if err != nil {
		metrics.RecordDBQuery("append", table.Name, "error", time.Since(start).Seconds())
		return 0, fmt.Errorf("prepare insert %s: %w", table.Name, err)
	}
	defer stmt.Close()

	var n int64
	for i, row := range rows {
		if len(row) != len(table.Columns) {
			return n, fmt.Errorf("insert %s row %d: %d values for %d columns", table.Name, i, len(row), len(table.Columns))
		}
		if _, err := stmt.ExecContext(ctx, encodeRow(row)...); err != nil {
			metrics.RecordDBQuery("append", table.Name, "error", time.Since(start).Seconds())
			return n, fmt.Errorf("insert %s row %d: %w", table.Name, i, err)
		}
		n++
	}

	metrics.RecordDBQuery("append", table.Name, "success", time.Since(start).Seconds())
	log.Debug().Str("table", table.Name).Int64("rows", n).Msg("Appended rows")
	return n, nil
}

// Truncate deletes every row of table.
func (t *tx) Truncate(ctx context.Context, table storage.Table) error {
	if _, err := t.sqlTx.ExecContext(ctx, `DELETE FROM `+quote(table.Name)); err != nil {
		return fmt.Errorf("truncate %s: %w", table.Name, err)
	}
	return nil
}

// WriteCheckpoint replaces the checkpoint row of dataset. Delete-then-insert
// also works on Last_Updated tables created without a primary key.
func (t *tx) WriteCheckpoint(ctx context.Context, dataset string, date time.Time) error {
	if _, err := t.sqlTx.ExecContext(ctx, `DELETE FROM "Last_Updated" WHERE "Type" = ?`, dataset); err != nil {
		return fmt.Errorf("clear checkpoint %s: %w", dataset, err)
	}
	if _, err := t.sqlTx.ExecContext(ctx,
		`INSERT INTO "Last_Updated" ("Type", "Date") VALUES (?, ?)`,
		dataset, date.Format(storage.CheckpointLayout),
	); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", dataset, err)
	}
	return nil
}

// encodeRow stores dates as YYYY-MM-DD text so they sort and compare in SQL.
func encodeRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if tv, ok := v.(time.Time); ok {
			out[i] = tv.Format(models.GameDateLayout)
			continue
		}
		out[i] = v
	}
	return out
}

func parseCheckpoint(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{storage.CheckpointLayout, models.GameDateLayout, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return storage.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable checkpoint date %q", raw)
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
