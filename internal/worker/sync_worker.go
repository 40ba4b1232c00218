package worker

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/amqp"
	"ledger/internal/log"
	"ledger/internal/sheets"
	"ledger/internal/storage"
)

// RowSource is the local storage the worker copies rows from.
type RowSource interface {
	GetRow(ctx context.Context, id int64) (storage.LedgerRow, error)
	PendingSync(ctx context.Context, limit int) ([]storage.LedgerRow, error)
	ClaimForSync(ctx context.Context, id int64) (bool, error)
	ResetStaleProcessing(ctx context.Context) (int64, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker copies rows stored in SQLite into the spreadsheet.
type SyncWorker struct {
	rows      RowSource
	sheets    sheets.PartitionAppender
	batchSize int
}

func NewSyncWorker(rows RowSource, sheets sheets.PartitionAppender, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &SyncWorker{
		rows:      rows,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// ResetStale releases rows a previous run left claimed. It must run before the
// consumer and the sweep start.
func (w *SyncWorker) ResetStale(ctx context.Context) error {
	if _, err := w.rows.ResetStaleProcessing(ctx); err != nil {
		return fmt.Errorf("reset stale rows: %w", err)
	}
	return nil
}

// HandleSyncMessage processes a single row sync message from AMQP. Rows that
// were already synced or are being synced by a sweep are acknowledged without
// a second append.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RowSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		log.FieldRowID, msg.ID,
		"message_id", msg.MessageID)

	row, err := w.rows.GetRow(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get row from storage: %w", err)
	}
	if row.SyncStatus == storage.SyncDone {
		slog.InfoContext(ctx, "Row already synced, skipping", log.FieldRowID, row.ID)
		return nil
	}

	if _, err := w.syncRow(ctx, row); err != nil {
		return fmt.Errorf("sync row to sheets: %w", err)
	}
	return nil
}

// ProcessPending syncs one batch of rows that are still pending or failed.
// It backs up the AMQP path when messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.rows.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending rows: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending rows", log.FieldRows, len(pending))

	synced, skipped, failed := 0, 0, 0
	for _, row := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ok, err := w.syncRow(ctx, row)
		switch {
		case err != nil:
			slog.ErrorContext(ctx, "Failed to sync row",
				log.FieldRowID, row.ID,
				log.FieldError, err)
			failed++
		case !ok:
			skipped++
		default:
			synced++
		}
	}

	slog.InfoContext(ctx, "Pending sync completed",
		"total", len(pending),
		"synced", synced,
		"skipped", skipped,
		"errors", failed)
	return nil
}

// syncRow appends row to the spreadsheet once it holds the claim on it. It
// reports false, without error, when the row was claimed or synced elsewhere.
func (w *SyncWorker) syncRow(ctx context.Context, row storage.LedgerRow) (bool, error) {
	claimed, err := w.rows.ClaimForSync(ctx, row.ID)
	if err != nil {
		return false, err
	}
	if !claimed {
		slog.InfoContext(ctx, "Row claimed or synced elsewhere, skipping", log.FieldRowID, row.ID)
		return false, nil
	}

	if err := w.sheets.Append(ctx, row.Tab, row.SheetRow()); err != nil {
		if markErr := w.rows.MarkSyncError(ctx, row.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", log.FieldRowID, row.ID, log.FieldError, markErr)
		}
		return false, fmt.Errorf("append to sheets: %w", err)
	}

	// The append already happened; if this fails the row stays claimed until
	// the next startup resets it, and it may then be appended again.
	if err := w.rows.MarkSynced(ctx, row.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", log.FieldRowID, row.ID, log.FieldError, err)
	}

	slog.InfoContext(ctx, "Successfully synced row",
		log.FieldComponent, log.ComponentWorker,
		log.FieldRowID, row.ID,
		log.FieldPartition, row.Tab,
		log.FieldDesc, row.Description,
		log.FieldAmount, row.AmountCell)
	return true, nil
}
