package scanner

import (
	"time"

	"backhaul/internal/model"
)

// Store is the slice of persistence the scanner writes through.
type Store interface {
	// CreateScanJob persists a new scan job in running state.
	CreateScanJob(job *model.ScanJob) error

	// CompleteScanJob writes the final status, completion time and counters.
	CompleteScanJob(job *model.ScanJob) error

	// GetCatalogEntryByPath returns the catalog entry for a file path, or
	// nil if the path has never been cataloged.
	GetCatalogEntryByPath(filePath string) (*model.CatalogEntry, error)

	// InsertCatalogEntry persists a newly observed file.
	InsertCatalogEntry(entry *model.CatalogEntry) error

	// UpdateCatalogEntry overwrites the stored state of a changed file.
	UpdateCatalogEntry(entry *model.CatalogEntry) error

	// TouchCatalogEntry updates only last_scan_at for an unchanged file.
	TouchCatalogEntry(id string, lastScanAt time.Time) error

	// InsertHistoryEntry appends a change record.
	InsertHistoryEntry(entry *model.HistoryEntry) error

	// UpsertDirectoryAggregate inserts or replaces a directory rollup.
	UpsertDirectoryAggregate(agg *model.DirectoryAggregate) error
}
