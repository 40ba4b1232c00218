package services

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"
)

// LedgerWriter validates, normalizes and appends records to the tab of their month.
type LedgerWriter struct {
	store sheets.PartitionAppender
}

func NewLedgerWriter(store sheets.PartitionAppender) *LedgerWriter {
	return &LedgerWriter{store: store}
}

// Write appends c to partition core.PartitionFor(c.Date) and returns the
// record as written. Invalid records never reach the store.
func (w *LedgerWriter) Write(ctx context.Context, c core.Record) (core.Record, error) {
	if err := c.Validate(); err != nil {
		log.FromContext(ctx).InfoContext(ctx, "Rejected invalid record",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		return core.Record{}, err
	}

	rec := c.Normalize()
	partition := rec.Partition()

	if err := w.store.Append(ctx, partition, rec.Cells()); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to append record",
			log.FieldPartition, partition,
			log.FieldError, err)
		if !errors.Is(err, core.ErrStoreWrite) {
			err = fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
		}
		return core.Record{}, fmt.Errorf("append to %s: %w", partition, err)
	}

	fields := log.NewFields().
		WithOperation(log.OpAppend).
		WithRecord(rec.Date.CellString(), rec.Description, core.FormatAmount(rec.Amount), rec.Category.Label())
	fields[log.FieldPartition] = partition
	log.FromContext(ctx).InfoContext(ctx, "Record appended", fields.ToSlice()...)

	return rec, nil
}
