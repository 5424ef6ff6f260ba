package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"backhaul/internal/model"
)

// Scan job operations

const scanJobColumns = `id, scan_config_id, backup_job_id, root_path, recursive, max_depth,
	include_patterns, exclude_patterns, min_file_size, max_file_size, scan_type, status,
	started_at, completed_at, files_scanned, directories_scanned, total_size_bytes, error_count, created_at`

func (s *SQLiteStore) CreateScanJob(job *model.ScanJob) error {
	includes, err := toJSON(job.IncludePatterns)
	if err != nil {
		return err
	}
	excludes, err := toJSON(job.ExcludePatterns)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO scan_jobs (`+scanJobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.ScanConfigID, job.BackupJobID, job.RootPath, job.Recursive, nullInt(job.MaxDepth),
		includes, excludes, nullInt64(job.MinFileSize), nullInt64(job.MaxFileSize),
		job.ScanType, job.Status, nullTime(job.StartedAt), nullTime(job.CompletedAt),
		job.FilesScanned, job.DirectoriesScanned, job.TotalSizeBytes, job.ErrorCount, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating scan job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CompleteScanJob(job *model.ScanJob) error {
	_, err := s.db.Exec(`
		UPDATE scan_jobs SET status = ?, completed_at = ?, files_scanned = ?,
			directories_scanned = ?, total_size_bytes = ?, error_count = ?
		WHERE id = ?`,
		job.Status, nullTime(job.CompletedAt), job.FilesScanned,
		job.DirectoriesScanned, job.TotalSizeBytes, job.ErrorCount, job.ID)
	if err != nil {
		return fmt.Errorf("completing scan job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetScanJob(id string) (*model.ScanJob, error) {
	row := s.db.QueryRow(`SELECT `+scanJobColumns+` FROM scan_jobs WHERE id = ?`, id)
	job, err := scanScanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding scan job: %w", err)
	}
	return job, nil
}

func (s *SQLiteStore) ListScanJobs(limit int) ([]*model.ScanJob, error) {
	rows, err := s.db.Query(`
		SELECT `+scanJobColumns+` FROM scan_jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scan jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.ScanJob
	for rows.Next() {
		job, err := scanScanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanScanJob(r rowScanner) (*model.ScanJob, error) {
	var job model.ScanJob
	var maxDepth, minSize, maxSize sql.NullInt64
	var includes, excludes string
	var startedAt, completedAt sql.NullTime
	if err := r.Scan(&job.ID, &job.ScanConfigID, &job.BackupJobID, &job.RootPath, &job.Recursive,
		&maxDepth, &includes, &excludes, &minSize, &maxSize, &job.ScanType, &job.Status,
		&startedAt, &completedAt, &job.FilesScanned, &job.DirectoriesScanned,
		&job.TotalSizeBytes, &job.ErrorCount, &job.CreatedAt); err != nil {
		return nil, err
	}
	job.MaxDepth = intPtr(maxDepth)
	job.MinFileSize = int64Ptr(minSize)
	job.MaxFileSize = int64Ptr(maxSize)
	job.StartedAt = timePtr(startedAt)
	job.CompletedAt = timePtr(completedAt)
	if err := fromJSON(includes, &job.IncludePatterns); err != nil {
		return nil, err
	}
	if err := fromJSON(excludes, &job.ExcludePatterns); err != nil {
		return nil, err
	}
	return &job, nil
}

// Scan config operations

const scanConfigColumns = `id, name, description, root_path, recursive, max_depth,
	include_patterns, exclude_patterns, min_file_size, max_file_size, status, last_scan_job_id,
	total_runs, successful_runs, failed_runs, last_run_at, is_active, created_at, updated_at`

func (s *SQLiteStore) CreateScanConfig(cfg *model.ScanConfig) error {
	includes, err := toJSON(cfg.IncludePatterns)
	if err != nil {
		return err
	}
	excludes, err := toJSON(cfg.ExcludePatterns)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO scan_configs (`+scanConfigColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cfg.ID, cfg.Name, cfg.Description, cfg.RootPath, cfg.Recursive, nullInt(cfg.MaxDepth),
		includes, excludes, nullInt64(cfg.MinFileSize), nullInt64(cfg.MaxFileSize),
		cfg.Status, cfg.LastScanJobID, cfg.TotalRuns, cfg.SuccessfulRuns, cfg.FailedRuns,
		nullTime(cfg.LastRunAt), cfg.IsActive, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating scan config: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetScanConfig(id string) (*model.ScanConfig, error) {
	return s.getScanConfig(`WHERE id = ?`, id)
}

func (s *SQLiteStore) GetScanConfigByName(name string) (*model.ScanConfig, error) {
	return s.getScanConfig(`WHERE name = ?`, name)
}

func (s *SQLiteStore) getScanConfig(where string, arg any) (*model.ScanConfig, error) {
	row := s.db.QueryRow(`SELECT `+scanConfigColumns+` FROM scan_configs `+where, arg)
	cfg, err := scanScanConfig(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding scan config: %w", err)
	}
	return cfg, nil
}

func (s *SQLiteStore) ListScanConfigs() ([]*model.ScanConfig, error) {
	rows, err := s.db.Query(`
		SELECT ` + scanConfigColumns + ` FROM scan_configs WHERE is_active = 1 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing scan configs: %w", err)
	}
	defer rows.Close()

	var configs []*model.ScanConfig
	for rows.Next() {
		cfg, err := scanScanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scan config: %w", err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// SetScanConfigStatus updates only the status column.
func (s *SQLiteStore) SetScanConfigStatus(id, status string, now time.Time) error {
	_, err := s.db.Exec(`UPDATE scan_configs SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id)
	if err != nil {
		return fmt.Errorf("setting scan config status: %w", err)
	}
	return nil
}

// RecordScanConfigRun folds one finished run into the config's counters.
func (s *SQLiteStore) RecordScanConfigRun(id, scanJobID, status string, success bool, now time.Time) error {
	successDelta, failedDelta := 0, 1
	if success {
		successDelta, failedDelta = 1, 0
	}
	_, err := s.db.Exec(`
		UPDATE scan_configs SET status = ?, last_scan_job_id = ?, total_runs = total_runs + 1,
			successful_runs = successful_runs + ?, failed_runs = failed_runs + ?,
			last_run_at = ?, updated_at = ?
		WHERE id = ?`,
		status, scanJobID, successDelta, failedDelta, now, now, id)
	if err != nil {
		return fmt.Errorf("recording scan config run: %w", err)
	}
	return nil
}

func scanScanConfig(r rowScanner) (*model.ScanConfig, error) {
	var cfg model.ScanConfig
	var maxDepth, minSize, maxSize sql.NullInt64
	var includes, excludes string
	var lastRunAt sql.NullTime
	if err := r.Scan(&cfg.ID, &cfg.Name, &cfg.Description, &cfg.RootPath, &cfg.Recursive,
		&maxDepth, &includes, &excludes, &minSize, &maxSize, &cfg.Status, &cfg.LastScanJobID,
		&cfg.TotalRuns, &cfg.SuccessfulRuns, &cfg.FailedRuns, &lastRunAt, &cfg.IsActive,
		&cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		return nil, err
	}
	cfg.MaxDepth = intPtr(maxDepth)
	cfg.MinFileSize = int64Ptr(minSize)
	cfg.MaxFileSize = int64Ptr(maxSize)
	cfg.LastRunAt = timePtr(lastRunAt)
	if err := fromJSON(includes, &cfg.IncludePatterns); err != nil {
		return nil, err
	}
	if err := fromJSON(excludes, &cfg.ExcludePatterns); err != nil {
		return nil, err
	}
	return &cfg, nil
}
