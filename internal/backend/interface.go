package backend

import (
	"context"

	"myexpenses/internal/records"
	"myexpenses/internal/services"
	"myexpenses/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is a ready service over the configured storage
type BackendResult struct {
	Service    *services.ExpenseService
	Store      *records.Store
	Categories []string
	Cleanup    CleanupFunc
}

// Close runs Cleanup when present
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens storage and wires the expense service
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateMirror returns the spreadsheet mirror the worker writes to
	CreateMirror(ctx context.Context, config Config) (sheets.RowMirror, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	StorageKey   string
	DataDir      string

	CSVStrictHeader bool

	// Optional change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Optional Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
