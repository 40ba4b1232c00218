package sheets

import (
	"context"
)

// Ports for outbound adapters. A partition is one month tab of the ledger.
type (
	// PartitionReader returns every row of a partition, header row first.
	// A missing partition is reported with core.ErrPartitionNotFound,
	// transport failures with core.ErrStoreUnavailable.
	PartitionReader interface {
		Fetch(ctx context.Context, partition string) ([][]string, error)
	}

	// PartitionAppender adds row after the existing content of partition.
	// There is no upsert: appending the same row twice stores it twice.
	// Failures are reported with core.ErrStoreWrite.
	PartitionAppender interface {
		Append(ctx context.Context, partition string, row []any) error
	}

	// Store is the tabular store consumed by the ledger.
	Store interface {
		PartitionReader
		PartitionAppender
	}
)

// Header is the first row of every partition.
var Header = []string{"Data", "Desc", "Valor", "Tipo"}
