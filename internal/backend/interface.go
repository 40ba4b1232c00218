// Package backend builds the ledger store selected by DATA_BACKEND.
package backend

import (
	"context"

	"ledger/internal/sheets"
)

// Backend is the partition store the web server reads and appends to.
type Backend interface {
	sheets.Store
}

// HealthChecker is implemented by stores that can be probed by /readyz.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// CleanupFunc releases connections held by a backend.
type CleanupFunc func() error

// BackendResult bundles a store with its probe and cleanup.
type BackendResult struct {
	Backend Backend
	// Health is nil when the backend has nothing to probe.
	Health HealthChecker
	// Cleanup is nil when there is nothing to release.
	Cleanup CleanupFunc
}

// Factory creates backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config carries the settings of every backend; only those of Type are read.
type Config struct {
	Type BackendType

	// sqlite: local rows, optionally announced over AMQP
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// sheets: service account access to one spreadsheet
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// memory: directory of seed_<Mon>.txt files
	DataDirectory string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid reports whether bt names a known backend.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
