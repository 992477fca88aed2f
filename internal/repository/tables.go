package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nbadata/ingestion/internal/metrics"
	"nbadata/ingestion/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// pgTx implements storage.Tx on a pgx transaction
type pgTx struct {
	tx pgx.Tx
}

// Append bulk-loads rows with COPY
func (t *pgTx) Append(ctx context.Context, table storage.Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	start := time.Now()

	n, err := t.tx.CopyFrom(ctx, pgx.Identifier{table.Name}, table.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		metrics.RecordDBQuery("copy", table.Name, "error", time.Since(start).Seconds())
		return 0, fmt.Errorf("failed to copy into %s: %w", table.Name, err)
	}

	metrics.RecordDBQuery("copy", table.Name, "success", time.Since(start).Seconds())
	log.Debug().
		Str("table", table.Name).
		Int64("rows", n).
		Msg("Copied rows")

	return n, nil
}

// Truncate removes every row of table
func (t *pgTx) Truncate(ctx context.Context, table storage.Table) error {
	if _, err := t.tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{table.Name}.Sanitize()); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", table.Name, err)
	}
	return nil
}

// WriteCheckpoint upserts the checkpoint date of dataset
func (t *pgTx) WriteCheckpoint(ctx context.Context, dataset string, date time.Time) error {
	query := `
		INSERT INTO "Last_Updated" ("Type", "Date")
		VALUES ($1, $2)
		ON CONFLICT ("Type") DO UPDATE SET "Date" = EXCLUDED."Date"
	`
	if _, err := t.tx.Exec(ctx, query, dataset, storage.DateOnly(date)); err != nil {
		return fmt.Errorf("failed to write checkpoint %s: %w", dataset, err)
	}
	return nil
}

// ReadCheckpoint returns the checkpoint date of dataset, or storage.ErrCheckpointNotFound
func (db *Database) ReadCheckpoint(ctx context.Context, dataset string) (time.Time, error) {
	var date time.Time
	err := db.Pool.QueryRow(ctx, `SELECT "Date" FROM "Last_Updated" WHERE "Type" = $1`, dataset).Scan(&date)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, storage.ErrCheckpointNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read checkpoint %s: %w", dataset, err)
	}
	return storage.DateOnly(date), nil
}
