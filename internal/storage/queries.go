package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the statements used by SQLiteRepository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// LedgerRow is a row as stored locally, cells kept in their spreadsheet text form.
type LedgerRow struct {
	ID          int64
	Tab         string
	DateCell    string
	Description string
	AmountCell  string
	Category    string
	CreatedAt   int64
	SyncStatus  string
	SyncedAt    sql.NullInt64
}

// Sync states of a stored row.
const (
	SyncPending    = "pending"
	SyncProcessing = "processing"
	SyncDone       = "synced"
	SyncError      = "error"
)

const ledgerRowColumns = `id, tab, date_cell, description, amount_cell, category, created_at, sync_status, synced_at`

func scanLedgerRow(s interface{ Scan(...any) error }) (LedgerRow, error) {
	var i LedgerRow
	err := s.Scan(
		&i.ID,
		&i.Tab,
		&i.DateCell,
		&i.Description,
		&i.AmountCell,
		&i.Category,
		&i.CreatedAt,
		&i.SyncStatus,
		&i.SyncedAt,
	)
	return i, err
}

const createLedgerRow = `INSERT INTO ledger_rows (tab, date_cell, description, amount_cell, category, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + ledgerRowColumns

type CreateLedgerRowParams struct {
	Tab         string
	DateCell    string
	Description string
	AmountCell  string
	Category    string
	CreatedAt   int64
}

func (q *Queries) CreateLedgerRow(ctx context.Context, arg CreateLedgerRowParams) (LedgerRow, error) {
	row := q.db.QueryRowContext(ctx, createLedgerRow,
		arg.Tab,
		arg.DateCell,
		arg.Description,
		arg.AmountCell,
		arg.Category,
		arg.CreatedAt,
	)
	return scanLedgerRow(row)
}

const getLedgerRow = `SELECT ` + ledgerRowColumns + ` FROM ledger_rows WHERE id = ?`

func (q *Queries) GetLedgerRow(ctx context.Context, id int64) (LedgerRow, error) {
	return scanLedgerRow(q.db.QueryRowContext(ctx, getLedgerRow, id))
}

const listLedgerRowsByTab = `SELECT ` + ledgerRowColumns + ` FROM ledger_rows WHERE tab = ? ORDER BY id`

func (q *Queries) ListLedgerRowsByTab(ctx context.Context, tab string) ([]LedgerRow, error) {
	return q.list(ctx, listLedgerRowsByTab, tab)
}

const getPendingSyncRows = `SELECT ` + ledgerRowColumns + ` FROM ledger_rows
WHERE sync_status IN ('pending', 'error')
ORDER BY id
LIMIT ?`

func (q *Queries) GetPendingSyncRows(ctx context.Context, limit int64) ([]LedgerRow, error) {
	return q.list(ctx, getPendingSyncRows, limit)
}

const claimLedgerRow = `UPDATE ledger_rows SET sync_status = 'processing'
WHERE id = ? AND sync_status IN ('pending', 'error')`

func (q *Queries) ClaimLedgerRow(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, claimLedgerRow, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const resetProcessingLedgerRows = `UPDATE ledger_rows SET sync_status = 'pending' WHERE sync_status = 'processing'`

func (q *Queries) ResetProcessingLedgerRows(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, resetProcessingLedgerRows)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markLedgerRowSynced = `UPDATE ledger_rows SET sync_status = 'synced', synced_at = ? WHERE id = ?`

func (q *Queries) MarkLedgerRowSynced(ctx context.Context, syncedAt, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markLedgerRowSynced, syncedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markLedgerRowSyncError = `UPDATE ledger_rows SET sync_status = 'error' WHERE id = ? AND sync_status != 'synced'`

func (q *Queries) MarkLedgerRowSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markLedgerRowSyncError, id)
	return err
}

const countLedgerRowsByStatus = `SELECT COUNT(*) FROM ledger_rows WHERE sync_status = ?`

func (q *Queries) CountLedgerRowsByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countLedgerRowsByStatus, status).Scan(&n)
	return n, err
}

func (q *Queries) list(ctx context.Context, query string, args ...interface{}) ([]LedgerRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerRow
	for rows.Next() {
		i, err := scanLedgerRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
