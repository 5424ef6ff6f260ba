package backup

import (
	"time"

	"backhaul/internal/model"
)

// Store provides an interface for metadata storage operations.
// All methods should be implemented with appropriate transaction handling.
type Store interface {
	// Backup job operations

	// CreateBackupJob persists a new backup job.
	CreateBackupJob(job *model.BackupJob) error

	// GetBackupJob returns a backup job by id, or nil if it does not exist.
	GetBackupJob(id string) (*model.BackupJob, error)

	// ListBackupJobs returns all non-deleted backup jobs, newest first.
	ListBackupJobs() ([]*model.BackupJob, error)

	// UpdateBackupJob updates name, mappings and is_active.
	UpdateBackupJob(job *model.BackupJob) error

	// SetBackupJobStatus updates only the status column.
	SetBackupJobStatus(id, status string, now time.Time) error

	// SoftDeleteBackupJob marks a job deleted without removing its rows.
	SoftDeleteBackupJob(id string, now time.Time) error

	// Schedule operations

	// CreateSchedule persists a new schedule.
	CreateSchedule(schedule *model.Schedule) error

	// GetSchedule returns a schedule by id, or nil if it does not exist.
	GetSchedule(id string) (*model.Schedule, error)

	// GetScheduleForJob returns the schedule bound to a backup job, or nil.
	// A job has at most one schedule.
	GetScheduleForJob(backupJobID string) (*model.Schedule, error)

	// ListEnabledSchedules returns all enabled schedules.
	ListEnabledSchedules() ([]*model.Schedule, error)

	// UpdateSchedule updates name, cron expression, enabled and next_run.
	UpdateSchedule(schedule *model.Schedule) error

	// DeleteSchedule removes a schedule.
	DeleteSchedule(id string) error

	// UpdateScheduleRun records the outcome of a scheduled run.
	UpdateScheduleRun(id string, lastRun time.Time, lastStatus string, nextRun *time.Time) error

	// Execution log operations

	// CreateExecutionLog persists a new execution log in running state.
	CreateExecutionLog(log *model.ExecutionLog) error

	// CompleteExecutionLog writes the completion fields of an execution log.
	CompleteExecutionLog(log *model.ExecutionLog) error

	// GetExecutionLog returns an execution log by id, or nil if it does not exist.
	GetExecutionLog(id string) (*model.ExecutionLog, error)

	// ListExecutionLogs returns execution logs ordered by started_at
	// descending, optionally filtered by backup job id.
	ListExecutionLogs(backupJobID string, limit int) ([]*model.ExecutionLog, error)

	// Catalog provenance operations

	// MarkCatalogBackedUp stamps every active catalog entry under the
	// source path with the backup time and job id, and returns the number
	// of entries touched.
	MarkCatalogBackedUp(sourcePath, backupJobID string, backupTime time.Time) (int64, error)

	// Close closes the underlying connection.
	Close() error
}
