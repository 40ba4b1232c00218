package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/log"
	"ledger/internal/sheets"
)

// RowStore is the local row storage behind SQLiteAdapter.
type RowStore interface {
	sheets.PartitionReader
	Insert(ctx context.Context, partition string, row []any) (int64, error)
}

// SyncPublisher announces rows that still need to reach the spreadsheet.
type SyncPublisher interface {
	PublishRowSync(ctx context.Context, id int64, partition string) error
}

// SQLiteAdapter stores rows locally first and then publishes a sync message,
// so the HTTP layer works unchanged on top of SQLite + AMQP.
type SQLiteAdapter struct {
	rows      RowStore
	publisher SyncPublisher
}

var _ sheets.Store = (*SQLiteAdapter)(nil)

// NewSQLiteAdapter wires rows to publisher. publisher may be nil, in which
// case rows are picked up by the worker's periodic sweep.
func NewSQLiteAdapter(rows RowStore, publisher SyncPublisher) *SQLiteAdapter {
	return &SQLiteAdapter{
		rows:      rows,
		publisher: publisher,
	}
}

// Fetch implements sheets.PartitionReader
func (a *SQLiteAdapter) Fetch(ctx context.Context, partition string) ([][]string, error) {
	return a.rows.Fetch(ctx, partition)
}

// Append implements sheets.PartitionAppender. A failed publish does not fail
// the write: the row is saved and stays pending.
func (a *SQLiteAdapter) Append(ctx context.Context, partition string, row []any) error {
	id, err := a.rows.Insert(ctx, partition, row)
	if err != nil {
		return fmt.Errorf("save row: %w", err)
	}

	if a.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, row left for periodic sync",
			log.FieldRowID, id)
		return nil
	}
	if err := a.publisher.PublishRowSync(ctx, id, partition); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldComponent, log.ComponentAMQP,
			log.FieldRowID, id,
			log.FieldError, err)
	}
	return nil
}
