package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"
)

// LedgerReader builds a normalized table from one or more month tabs.
type LedgerReader struct {
	store sheets.PartitionReader
}

func NewLedgerReader(store sheets.PartitionReader) *LedgerReader {
	return &LedgerReader{store: store}
}

// Read fetches every partition in ids, in the order given with duplicates
// removed, and returns their rows as one table sorted by date. Rows whose date
// does not parse are kept in Table.Rejected.
func (r *LedgerReader) Read(ctx context.Context, ids []string) (core.Table, error) {
	if len(ids) == 0 {
		return core.Table{}, &core.ValidationError{Fields: []string{core.FieldMonths}}
	}

	partitions, err := resolvePartitions(ids)
	if err != nil {
		return core.Table{}, err
	}

	start := time.Now()
	table := core.Table{Partitions: partitions, Entries: []core.Entry{}}
	for _, p := range partitions {
		rows, err := r.store.Fetch(ctx, p)
		if err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Failed to read partition",
				log.FieldPartition, p,
				log.FieldError, err)
			return core.Table{}, readError(p, err)
		}
		r.collect(ctx, &table, p, rows)
	}

	slices.SortStableFunc(table.Entries, func(a, b core.Entry) int {
		return a.Date.Value.Compare(b.Date.Value.Time)
	})

	log.FromContext(ctx).InfoContext(ctx, "Ledger read",
		log.FieldOperation, log.OpRead,
		log.FieldMonths, strings.Join(partitions, ","),
		log.FieldRows, len(table.Entries),
		log.FieldRejected, len(table.Rejected),
		log.FieldDuration, time.Since(start).Milliseconds())

	return table, nil
}

// collect parses rows of one tab into table, skipping the header row and
// rows with no content at all.
func (r *LedgerReader) collect(ctx context.Context, table *core.Table, partition string, rows [][]string) {
	for i, row := range rows {
		if i == 0 || isBlank(row) {
			continue
		}
		e := core.ParseRow(partition, i+1, row)
		if !e.Date.Valid() {
			log.FromContext(ctx).WarnContext(ctx, "Dropping row with unparseable date",
				log.FieldPartition, partition,
				log.FieldLine, e.Line,
				log.FieldDate, e.Date.Raw,
				log.FieldError, e.Date.Err)
			table.Rejected = append(table.Rejected, e)
			continue
		}
		table.Entries = append(table.Entries, e)
	}
}

func resolvePartitions(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		p, _, err := core.ParsePartition(id)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// readError makes sure a store failure carries one of the read error kinds.
func readError(partition string, err error) error {
	if errors.Is(err, core.ErrPartitionNotFound) || errors.Is(err, core.ErrStoreUnavailable) {
		return fmt.Errorf("fetch %s: %w", partition, err)
	}
	return fmt.Errorf("%w: fetch %s: %w", core.ErrStoreUnavailable, partition, err)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
