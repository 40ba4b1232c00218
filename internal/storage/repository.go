package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"

	_ "modernc.org/sqlite"
)

// ErrRowNotFound is returned when a row id does not exist.
var ErrRowNotFound = errors.New("ledger row not found")

// SQLiteRepository keeps ledger rows locally, one logical tab per month,
// together with their synchronization state.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ sheets.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Fetch implements sheets.PartitionReader. The header row is synthesized so
// the result looks like a spreadsheet tab.
func (r *SQLiteRepository) Fetch(ctx context.Context, partition string) ([][]string, error) {
	tab, _, err := core.ParsePartition(partition)
	if err != nil {
		return nil, err
	}
	items, err := r.queries.ListLedgerRowsByTab(ctx, tab)
	if err != nil {
		return nil, fmt.Errorf("%w: list rows of %s: %w", core.ErrStoreUnavailable, tab, err)
	}

	out := make([][]string, 0, len(items)+1)
	out = append(out, append([]string(nil), sheets.Header...))
	for _, it := range items {
		out = append(out, it.Cells())
	}
	return out, nil
}

// Append implements sheets.PartitionAppender.
func (r *SQLiteRepository) Append(ctx context.Context, partition string, row []any) error {
	_, err := r.Insert(ctx, partition, row)
	return err
}

// Insert stores row in partition and returns the new row id. Cells are kept
// in their rendered spreadsheet form.
func (r *SQLiteRepository) Insert(ctx context.Context, partition string, row []any) (int64, error) {
	tab, _, err := core.ParsePartition(partition)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
	}
	cells := make([]string, core.RowWidth)
	copy(cells, sheets.RenderRow(row))

	item, err := r.queries.CreateLedgerRow(ctx, CreateLedgerRowParams{
		Tab:         tab,
		DateCell:    cells[0],
		Description: cells[1],
		AmountCell:  cells[2],
		Category:    cells[3],
		CreatedAt:   r.now().UnixMilli(),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: create row: %w", core.ErrStoreWrite, err)
	}

	slog.InfoContext(ctx, "Row saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldRowID, item.ID,
		log.FieldPartition, item.Tab,
		log.FieldAmount, item.AmountCell)

	return item.ID, nil
}

// GetRow retrieves a single row by id
func (r *SQLiteRepository) GetRow(ctx context.Context, id int64) (LedgerRow, error) {
	item, err := r.queries.GetLedgerRow(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return LedgerRow{}, fmt.Errorf("%w: %d", ErrRowNotFound, id)
	}
	if err != nil {
		return LedgerRow{}, fmt.Errorf("get row %d: %w", id, err)
	}
	return item, nil
}

// PendingSync returns up to limit rows not yet copied to the spreadsheet,
// oldest first. Rows whose last attempt failed are included.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]LedgerRow, error) {
	items, err := r.queries.GetPendingSyncRows(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync rows: %w", err)
	}
	return items, nil
}

// ClaimForSync moves a pending or failed row to processing. It reports false
// when another sync already holds the row or finished it, so only one caller
// appends the row to the spreadsheet.
func (r *SQLiteRepository) ClaimForSync(ctx context.Context, id int64) (bool, error) {
	n, err := r.queries.ClaimLedgerRow(ctx, id)
	if err != nil {
		return false, fmt.Errorf("claim row %d: %w", id, err)
	}
	return n == 1, nil
}

// ResetStaleProcessing returns rows left in processing by a crashed worker to
// pending. Call it once at startup, before any sync runs.
func (r *SQLiteRepository) ResetStaleProcessing(ctx context.Context) (int64, error) {
	n, err := r.queries.ResetProcessingLedgerRows(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset processing rows: %w", err)
	}
	if n > 0 {
		slog.WarnContext(ctx, "Reset stale processing rows", log.FieldComponent, log.ComponentStorage, log.FieldRows, n)
	}
	return n, nil
}

// MarkSynced marks a row as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	n, err := r.queries.MarkLedgerRowSynced(ctx, r.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("mark row synced: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark row synced: %w: %d", ErrRowNotFound, id)
	}
	slog.InfoContext(ctx, "Row marked as synced", log.FieldRowID, id)
	return nil
}

// MarkSyncError records a failed sync attempt. Synced rows are left alone.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkLedgerRowSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark row sync error: %w", err)
	}
	slog.WarnContext(ctx, "Row marked with sync error", log.FieldRowID, id)
	return nil
}

// CountByStatus returns how many rows are in the given sync state.
func (r *SQLiteRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	n, err := r.queries.CountLedgerRowsByStatus(ctx, status)
	if err != nil {
		return 0, fmt.Errorf("count rows %s: %w", status, err)
	}
	return n, nil
}

// Cells returns the row as spreadsheet text cells.
func (i LedgerRow) Cells() []string {
	return []string{i.DateCell, i.Description, i.AmountCell, i.Category}
}

// SheetRow converts the stored row back to the values appended to the
// spreadsheet: the amount becomes a number again when it parses.
func (i LedgerRow) SheetRow() []any {
	var amount any = i.AmountCell
	if d, err := core.ParseAmount(i.AmountCell); err == nil {
		amount = d.InexactFloat64()
	}
	return []any{i.DateCell, i.Description, amount, i.Category}
}
