// Package scanner catalogs file trees: content hashes, change history
// and per-directory rollups.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"backhaul/internal/backup"
	"backhaul/internal/model"
)

const defaultHashWorkers = 4

// Request describes one scan to perform.
type Request struct {
	RootPath        string
	Recursive       bool
	MaxDepth        *int
	IncludePatterns []string
	ExcludePatterns []string
	MinFileSize     *int64
	MaxFileSize     *int64
	ScanType        string
	ScanConfigID    string // set when the scan runs a stored configuration
	BackupJobID     string // set when the scan precedes a backup
}

// Scanner walks a file tree and records what it finds. Files in each
// directory are hashed concurrently; directories are recursed depth
// first so rollups can be computed on the way back up.
type Scanner struct {
	store   Store
	logger  backup.Logger
	clock   backup.Clock
	idgen   backup.IDGenerator
	workers int
}

var _ backup.PreScanner = (*Scanner)(nil)

func NewScanner(store Store, logger backup.Logger, clock backup.Clock, idgen backup.IDGenerator, workers int) *Scanner {
	if workers <= 0 {
		workers = defaultHashWorkers
	}
	return &Scanner{store: store, logger: logger, clock: clock, idgen: idgen, workers: workers}
}

// counters accumulates scan totals across hashing goroutines.
type counters struct {
	mu          sync.Mutex
	files       int64
	directories int64
	bytes       int64
	errors      int
}

func (c *counters) addFile(size int64) {
	c.mu.Lock()
	c.files++
	c.bytes += size
	c.mu.Unlock()
}

func (c *counters) addError() {
	c.mu.Lock()
	c.errors++
	c.mu.Unlock()
}

// rollup carries a subtree's totals back to its parent directory.
type rollup struct {
	totalFiles int64
	totalSize  int64
}

// Scan runs one cataloging pass. The scan job row is created before the
// traversal and completed with final counters afterwards; a traversal
// error marks the job failed and is returned.
func (s *Scanner) Scan(req Request) (*model.ScanJob, error) {
	if req.ScanType == "" {
		req.ScanType = model.ScanTypeManual
	}
	root, err := filepath.Abs(req.RootPath)
	if err != nil {
		return nil, fmt.Errorf("resolving scan root: %w", err)
	}

	now := s.clock.Now()
	job := &model.ScanJob{
		ID:              s.idgen.New(),
		ScanConfigID:    req.ScanConfigID,
		BackupJobID:     req.BackupJobID,
		RootPath:        root,
		Recursive:       req.Recursive,
		MaxDepth:        req.MaxDepth,
		IncludePatterns: req.IncludePatterns,
		ExcludePatterns: req.ExcludePatterns,
		MinFileSize:     req.MinFileSize,
		MaxFileSize:     req.MaxFileSize,
		ScanType:        req.ScanType,
		Status:          model.JobStatusRunning,
		StartedAt:       &now,
		CreatedAt:       now,
	}
	if err := s.store.CreateScanJob(job); err != nil {
		return nil, fmt.Errorf("creating scan job: %w", err)
	}

	s.logger.Info("scan started", "scan_job_id", job.ID, "root", root, "scan_type", req.ScanType)

	f := newFilter(req.IncludePatterns, req.ExcludePatterns, req.MinFileSize, req.MaxFileSize)
	stats := &counters{}
	scanErr := func() error {
		_, err := s.scanDirectory(root, root, 0, &req, f, job, stats)
		return err
	}()

	completed := s.clock.Now()
	job.CompletedAt = &completed
	job.FilesScanned = stats.files
	job.DirectoriesScanned = stats.directories
	job.TotalSizeBytes = stats.bytes
	job.ErrorCount = stats.errors
	if scanErr != nil {
		job.Status = model.JobStatusFailed
	} else {
		job.Status = model.JobStatusCompleted
	}
	if err := s.store.CompleteScanJob(job); err != nil {
		return job, fmt.Errorf("completing scan job: %w", err)
	}

	if scanErr != nil {
		s.logger.Error("scan failed", "scan_job_id", job.ID, "error", scanErr)
		return job, fmt.Errorf("scanning %s: %w", root, scanErr)
	}
	s.logger.Info("scan finished",
		"scan_job_id", job.ID,
		"files", job.FilesScanned, "directories", job.DirectoriesScanned,
		"bytes", job.TotalSizeBytes, "errors", job.ErrorCount)
	return job, nil
}

// PreScan catalogs a backup source before transfer. It satisfies the
// orchestrator's PreScanner contract.
func (s *Scanner) PreScan(root, backupJobID string) error {
	_, err := s.Scan(Request{
		RootPath:    root,
		Recursive:   true,
		ScanType:    model.ScanTypeBackupPre,
		BackupJobID: backupJobID,
	})
	return err
}

// scanDirectory catalogs one directory's files, recurses into its
// subdirectories and upserts the directory's rollup. Per-file failures
// are counted and skipped; an unreadable directory aborts the scan.
func (s *Scanner) scanDirectory(root, dir string, depth int, req *Request, f *filter, job *model.ScanJob, stats *counters) (rollup, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return rollup{}, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	stats.mu.Lock()
	stats.directories++
	stats.mu.Unlock()

	var files []string
	var subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || !f.acceptPath(rel) {
			continue
		}
		files = append(files, path)
	}

	// Immediate-children stats feed the directory rollup.
	var mu sync.Mutex
	var directFiles, directSize int64
	fileTypes := make(map[string]int)

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, path := range files {
		g.Go(func() error {
			size, ext, cataloged, err := s.catalogFile(path, depth, f, job, stats)
			if err != nil {
				return err
			}
			if !cataloged {
				return nil
			}
			stats.addFile(size)
			mu.Lock()
			directFiles++
			directSize += size
			fileTypes[ext]++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rollup{}, err
	}

	total := rollup{totalFiles: directFiles, totalSize: directSize}
	recurse := req.Recursive && (req.MaxDepth == nil || depth < *req.MaxDepth)
	if recurse {
		for _, sub := range subdirs {
			subTotal, err := s.scanDirectory(root, sub, depth+1, req, f, job, stats)
			if err != nil {
				return rollup{}, err
			}
			total.totalFiles += subTotal.totalFiles
			total.totalSize += subTotal.totalSize
		}
	}

	agg := &model.DirectoryAggregate{
		DirectoryPath:     dir,
		DirectoryName:     filepath.Base(dir),
		Depth:             depth,
		TotalFiles:        total.totalFiles,
		DirectFiles:       directFiles,
		TotalSize:         total.totalSize,
		SubdirectoryCount: len(subdirs),
		FileTypes:         fileTypes,
		LastScanAt:        s.clock.Now(),
	}
	if err := s.store.UpsertDirectoryAggregate(agg); err != nil {
		return rollup{}, fmt.Errorf("upserting directory aggregate for %s: %w", dir, err)
	}
	return total, nil
}
