package backup

import "errors"

var (
	// ErrInvalidMapping indicates a backup job mapping that is not a JSON
	// object of source path to destination path array.
	ErrInvalidMapping = errors.New("invalid backup mapping")

	// ErrJobRunning indicates an attempt to run a backup job that already
	// has a run in flight.
	ErrJobRunning = errors.New("backup job already running")

	// ErrInvalidCron indicates a cron expression that is not the supported
	// six-field dialect.
	ErrInvalidCron = errors.New("invalid cron expression")

	// ErrScheduleExists indicates an attempt to create a second schedule
	// for a backup job.
	ErrScheduleExists = errors.New("schedule already exists for job")
)
