package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"backhaul/internal/model"
)

// Backup job operations

func (s *SQLiteStore) CreateBackupJob(job *model.BackupJob) error {
	_, err := s.db.Exec(`
		INSERT INTO backup_jobs (id, name, mappings, status, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Name, job.Mappings, job.Status, job.IsActive, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating backup job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBackupJob(id string) (*model.BackupJob, error) {
	row := s.db.QueryRow(`
		SELECT id, name, mappings, status, is_active, created_at, updated_at, deleted_at
		FROM backup_jobs WHERE id = ?`, id)
	job, err := scanBackupJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding backup job: %w", err)
	}
	return job, nil
}

func (s *SQLiteStore) ListBackupJobs() ([]*model.BackupJob, error) {
	rows, err := s.db.Query(`
		SELECT id, name, mappings, status, is_active, created_at, updated_at, deleted_at
		FROM backup_jobs WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing backup jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.BackupJob
	for rows.Next() {
		job, err := scanBackupJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning backup job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *SQLiteStore) UpdateBackupJob(job *model.BackupJob) error {
	_, err := s.db.Exec(`
		UPDATE backup_jobs SET name = ?, mappings = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		job.Name, job.Mappings, job.IsActive, job.UpdatedAt, job.ID)
	if err != nil {
		return fmt.Errorf("updating backup job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetBackupJobStatus(id, status string, now time.Time) error {
	_, err := s.db.Exec(`UPDATE backup_jobs SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id)
	if err != nil {
		return fmt.Errorf("setting backup job status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SoftDeleteBackupJob(id string, now time.Time) error {
	_, err := s.db.Exec(`
		UPDATE backup_jobs SET deleted_at = ?, is_active = 0, updated_at = ? WHERE id = ?`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("deleting backup job: %w", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBackupJob(r rowScanner) (*model.BackupJob, error) {
	var job model.BackupJob
	var deletedAt sql.NullTime
	if err := r.Scan(&job.ID, &job.Name, &job.Mappings, &job.Status, &job.IsActive,
		&job.CreatedAt, &job.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	job.DeletedAt = timePtr(deletedAt)
	return &job, nil
}

// Schedule operations

func (s *SQLiteStore) CreateSchedule(schedule *model.Schedule) error {
	_, err := s.db.Exec(`
		INSERT INTO schedules (id, backup_job_id, name, cron_expression, enabled, next_run, last_run, last_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.ID, schedule.BackupJobID, schedule.Name, schedule.CronExpression, schedule.Enabled,
		nullTime(schedule.NextRun), nullTime(schedule.LastRun), schedule.LastStatus,
		schedule.CreatedAt, schedule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating schedule: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSchedule(id string) (*model.Schedule, error) {
	return s.getSchedule(`WHERE id = ?`, id)
}

func (s *SQLiteStore) GetScheduleForJob(backupJobID string) (*model.Schedule, error) {
	return s.getSchedule(`WHERE backup_job_id = ?`, backupJobID)
}

func (s *SQLiteStore) getSchedule(where string, arg any) (*model.Schedule, error) {
	row := s.db.QueryRow(`
		SELECT id, backup_job_id, name, cron_expression, enabled, next_run, last_run, last_status, created_at, updated_at
		FROM schedules `+where, arg)
	schedule, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding schedule: %w", err)
	}
	return schedule, nil
}

func (s *SQLiteStore) ListEnabledSchedules() ([]*model.Schedule, error) {
	rows, err := s.db.Query(`
		SELECT id, backup_job_id, name, cron_expression, enabled, next_run, last_run, last_status, created_at, updated_at
		FROM schedules WHERE enabled = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing enabled schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

func (s *SQLiteStore) UpdateSchedule(schedule *model.Schedule) error {
	_, err := s.db.Exec(`
		UPDATE schedules SET name = ?, cron_expression = ?, enabled = ?, next_run = ?, updated_at = ?
		WHERE id = ?`,
		schedule.Name, schedule.CronExpression, schedule.Enabled, nullTime(schedule.NextRun),
		schedule.UpdatedAt, schedule.ID)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSchedule(id string) error {
	if _, err := s.db.Exec(`DELETE FROM schedules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting schedule: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateScheduleRun(id string, lastRun time.Time, lastStatus string, nextRun *time.Time) error {
	_, err := s.db.Exec(`
		UPDATE schedules SET last_run = ?, last_status = ?, next_run = ?, updated_at = ? WHERE id = ?`,
		lastRun, lastStatus, nullTime(nextRun), lastRun, id)
	if err != nil {
		return fmt.Errorf("updating schedule run: %w", err)
	}
	return nil
}

func scanSchedule(r rowScanner) (*model.Schedule, error) {
	var schedule model.Schedule
	var nextRun, lastRun sql.NullTime
	if err := r.Scan(&schedule.ID, &schedule.BackupJobID, &schedule.Name, &schedule.CronExpression,
		&schedule.Enabled, &nextRun, &lastRun, &schedule.LastStatus,
		&schedule.CreatedAt, &schedule.UpdatedAt); err != nil {
		return nil, err
	}
	schedule.NextRun = timePtr(nextRun)
	schedule.LastRun = timePtr(lastRun)
	return &schedule, nil
}

// Execution log operations

const executionLogColumns = `id, backup_job_id, schedule_id, status, command, source_path, destination_path,
	started_at, completed_at, files_transferred, files_checked, files_deleted, bytes_transferred,
	transfer_rate_mbps, duration_seconds, error_count, error_message, stdout, stderr, triggered_by, created_at`

func (s *SQLiteStore) CreateExecutionLog(log *model.ExecutionLog) error {
	_, err := s.db.Exec(`
		INSERT INTO execution_logs (id, backup_job_id, schedule_id, status, source_path, destination_path, started_at, triggered_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.BackupJobID, log.ScheduleID, log.Status, log.SourcePath, log.DestinationPath,
		log.StartedAt, log.TriggeredBy, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating execution log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CompleteExecutionLog(log *model.ExecutionLog) error {
	_, err := s.db.Exec(`
		UPDATE execution_logs SET status = ?, command = ?, completed_at = ?, files_transferred = ?,
			files_checked = ?, files_deleted = ?, bytes_transferred = ?, transfer_rate_mbps = ?,
			duration_seconds = ?, error_count = ?, error_message = ?, stdout = ?, stderr = ?
		WHERE id = ?`,
		log.Status, log.Command, nullTime(log.CompletedAt), log.FilesTransferred,
		log.FilesChecked, log.FilesDeleted, log.BytesTransferred, log.TransferRateMBps,
		log.DurationSeconds, log.ErrorCount, log.ErrorMessage, log.Stdout, log.Stderr,
		log.ID)
	if err != nil {
		return fmt.Errorf("completing execution log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetExecutionLog(id string) (*model.ExecutionLog, error) {
	row := s.db.QueryRow(`SELECT `+executionLogColumns+` FROM execution_logs WHERE id = ?`, id)
	log, err := scanExecutionLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding execution log: %w", err)
	}
	return log, nil
}

func (s *SQLiteStore) ListExecutionLogs(backupJobID string, limit int) ([]*model.ExecutionLog, error) {
	query := `SELECT ` + executionLogColumns + ` FROM execution_logs`
	args := []any{}
	if backupJobID != "" {
		query += ` WHERE backup_job_id = ?`
		args = append(args, backupJobID)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing execution logs: %w", err)
	}
	defer rows.Close()

	var logs []*model.ExecutionLog
	for rows.Next() {
		log, err := scanExecutionLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning execution log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func scanExecutionLog(r rowScanner) (*model.ExecutionLog, error) {
	var log model.ExecutionLog
	var completedAt sql.NullTime
	if err := r.Scan(&log.ID, &log.BackupJobID, &log.ScheduleID, &log.Status, &log.Command,
		&log.SourcePath, &log.DestinationPath, &log.StartedAt, &completedAt,
		&log.FilesTransferred, &log.FilesChecked, &log.FilesDeleted, &log.BytesTransferred,
		&log.TransferRateMBps, &log.DurationSeconds, &log.ErrorCount, &log.ErrorMessage,
		&log.Stdout, &log.Stderr, &log.TriggeredBy, &log.CreatedAt); err != nil {
		return nil, err
	}
	log.CompletedAt = timePtr(completedAt)
	return &log, nil
}
