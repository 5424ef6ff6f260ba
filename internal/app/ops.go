package app

import (
	"context"
	"fmt"

	"backhaul/internal/backup"
	"backhaul/internal/model"
	"backhaul/internal/provider"
	"backhaul/internal/scanner"
	"backhaul/internal/schedule"
)

// Execution log listing limits.
const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

// Backup job operations

// CreateBackupJob validates the mappings JSON and persists a new job.
func (a *App) CreateBackupJob(name, mappings string) (*model.BackupJob, error) {
	if name == "" {
		return nil, fmt.Errorf("job name is required")
	}
	if _, err := backup.ParseMappings(mappings); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	job := &model.BackupJob{
		ID:        a.idgen.New(),
		Name:      name,
		Mappings:  mappings,
		Status:    model.JobStatusPending,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateBackupJob(job); err != nil {
		return nil, err
	}
	a.logger.Info("backup job created", "job_id", job.ID, "name", name)
	return job, nil
}

func (a *App) ListBackupJobs() ([]*model.BackupJob, error) {
	return a.store.ListBackupJobs()
}

func (a *App) GetBackupJob(id string) (*model.BackupJob, error) {
	job, err := a.store.GetBackupJob(id)
	if err != nil {
		return nil, err
	}
	if job == nil || job.DeletedAt != nil {
		return nil, fmt.Errorf("backup job not found: %s", id)
	}
	return job, nil
}

// UpdateBackupJob replaces a job's name and mappings.
func (a *App) UpdateBackupJob(id, name, mappings string) (*model.BackupJob, error) {
	job, err := a.GetBackupJob(id)
	if err != nil {
		return nil, err
	}
	if _, err := backup.ParseMappings(mappings); err != nil {
		return nil, err
	}

	job.Name = name
	job.Mappings = mappings
	job.UpdatedAt = a.clock.Now()
	if err := a.store.UpdateBackupJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// DeleteBackupJob soft-deletes a job and removes its schedule.
func (a *App) DeleteBackupJob(id string) error {
	if _, err := a.GetBackupJob(id); err != nil {
		return err
	}

	sched, err := a.store.GetScheduleForJob(id)
	if err != nil {
		return err
	}
	if sched != nil {
		if err := a.store.DeleteSchedule(sched.ID); err != nil {
			return err
		}
	}
	return a.store.SoftDeleteBackupJob(id, a.clock.Now())
}

// RunBackupJob runs a job synchronously and returns its outcome.
func (a *App) RunBackupJob(ctx context.Context, id string) (*backup.RunResult, error) {
	return a.orchestrator.Run(ctx, id, "")
}

// Schedule operations

// CreateSchedule binds a cron schedule to a backup job. A job can have
// at most one schedule.
func (a *App) CreateSchedule(backupJobID, name, cronExpression string, enabled bool) (*model.Schedule, error) {
	if _, err := a.GetBackupJob(backupJobID); err != nil {
		return nil, err
	}
	existing, err := a.store.GetScheduleForJob(backupJobID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", backup.ErrScheduleExists, backupJobID)
	}
	if err := schedule.Validate(cronExpression); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	next, err := schedule.NextRun(cronExpression, now)
	if err != nil {
		return nil, err
	}
	sched := &model.Schedule{
		ID:             a.idgen.New(),
		BackupJobID:    backupJobID,
		Name:           name,
		CronExpression: cronExpression,
		Enabled:        enabled,
		NextRun:        &next,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := a.store.CreateSchedule(sched); err != nil {
		return nil, err
	}
	a.logger.Info("schedule created", "schedule_id", sched.ID, "job_id", backupJobID, "cron", cronExpression)
	return sched, nil
}

func (a *App) GetScheduleForJob(backupJobID string) (*model.Schedule, error) {
	sched, err := a.store.GetScheduleForJob(backupJobID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, fmt.Errorf("no schedule for job: %s", backupJobID)
	}
	return sched, nil
}

// UpdateSchedule replaces a schedule's name, expression and enablement.
func (a *App) UpdateSchedule(id, name, cronExpression string, enabled bool) (*model.Schedule, error) {
	sched, err := a.store.GetSchedule(id)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, fmt.Errorf("schedule not found: %s", id)
	}
	if err := schedule.Validate(cronExpression); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	next, err := schedule.NextRun(cronExpression, now)
	if err != nil {
		return nil, err
	}
	sched.Name = name
	sched.CronExpression = cronExpression
	sched.Enabled = enabled
	sched.NextRun = &next
	sched.UpdatedAt = now
	if err := a.store.UpdateSchedule(sched); err != nil {
		return nil, err
	}
	return sched, nil
}

func (a *App) DeleteSchedule(id string) error {
	sched, err := a.store.GetSchedule(id)
	if err != nil {
		return err
	}
	if sched == nil {
		return fmt.Errorf("schedule not found: %s", id)
	}
	return a.store.DeleteSchedule(id)
}

// Execution log operations

// ListExecutionLogs returns recent transfer logs, newest first. limit
// defaults to 50 and is capped at 200.
func (a *App) ListExecutionLogs(backupJobID string, limit int) ([]*model.ExecutionLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	return a.store.ListExecutionLogs(backupJobID, limit)
}

func (a *App) GetExecutionLog(id string) (*model.ExecutionLog, error) {
	log, err := a.store.GetExecutionLog(id)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("execution log not found: %s", id)
	}
	return log, nil
}

// Scan operations

// ScanConfigParams describes a reusable scan configuration.
type ScanConfigParams struct {
	Name            string
	Description     string
	RootPath        string
	Recursive       bool
	MaxDepth        *int
	IncludePatterns []string
	ExcludePatterns []string
	MinFileSize     *int64
	MaxFileSize     *int64
}

// CreateScanConfig persists a named scan configuration.
func (a *App) CreateScanConfig(params ScanConfigParams) (*model.ScanConfig, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("scan config name is required")
	}
	if params.RootPath == "" {
		return nil, fmt.Errorf("scan config root path is required")
	}
	existing, err := a.store.GetScanConfigByName(params.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("scan config already exists: %s", params.Name)
	}

	now := a.clock.Now()
	cfg := &model.ScanConfig{
		ID:              a.idgen.New(),
		Name:            params.Name,
		Description:     params.Description,
		RootPath:        params.RootPath,
		Recursive:       params.Recursive,
		MaxDepth:        params.MaxDepth,
		IncludePatterns: params.IncludePatterns,
		ExcludePatterns: params.ExcludePatterns,
		MinFileSize:     params.MinFileSize,
		MaxFileSize:     params.MaxFileSize,
		Status:          model.JobStatusPending,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.store.CreateScanConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *App) ListScanConfigs() ([]*model.ScanConfig, error) {
	return a.store.ListScanConfigs()
}

// RunScanConfig executes a stored scan configuration and folds the
// outcome into its run counters.
func (a *App) RunScanConfig(id string) (*model.ScanJob, error) {
	cfg, err := a.store.GetScanConfig(id)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("scan config not found: %s", id)
	}

	if err := a.store.SetScanConfigStatus(cfg.ID, model.JobStatusRunning, a.clock.Now()); err != nil {
		return nil, err
	}

	job, scanErr := a.scanner.Scan(scanner.Request{
		RootPath:        cfg.RootPath,
		Recursive:       cfg.Recursive,
		MaxDepth:        cfg.MaxDepth,
		IncludePatterns: cfg.IncludePatterns,
		ExcludePatterns: append(append([]string{}, a.cfg.Scanner.Exclude...), cfg.ExcludePatterns...),
		MinFileSize:     cfg.MinFileSize,
		MaxFileSize:     cfg.MaxFileSize,
		ScanType:        model.ScanTypeManual,
		ScanConfigID:    cfg.ID,
	})

	status := model.JobStatusCompleted
	if scanErr != nil {
		status = model.JobStatusFailed
	}
	jobID := ""
	if job != nil {
		jobID = job.ID
	}
	if err := a.store.RecordScanConfigRun(cfg.ID, jobID, status, scanErr == nil, a.clock.Now()); err != nil {
		return job, err
	}
	return job, scanErr
}

// ScanPath runs an ad-hoc scan outside any stored configuration.
func (a *App) ScanPath(rootPath string, recursive bool) (*model.ScanJob, error) {
	return a.scanner.Scan(scanner.Request{
		RootPath:        rootPath,
		Recursive:       recursive,
		ExcludePatterns: a.cfg.Scanner.Exclude,
		ScanType:        model.ScanTypeManual,
	})
}

func (a *App) ListScanJobs(limit int) ([]*model.ScanJob, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	return a.store.ListScanJobs(limit)
}

func (a *App) GetScanJob(id string) (*model.ScanJob, error) {
	job, err := a.store.GetScanJob(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("scan job not found: %s", id)
	}
	return job, nil
}

// Duplicate detection

func (a *App) ListDuplicateGroups() ([]*model.DuplicateGroup, error) {
	return a.store.FindDuplicateGroups()
}

// Provider operations

func (a *App) AddProvider(params provider.AddParams) (*model.CloudProvider, error) {
	return a.providers.Add(params)
}

func (a *App) ListProviders() ([]*model.CloudProvider, error) {
	return a.providers.List()
}

func (a *App) DeleteProvider(id string) error {
	return a.providers.Delete(id)
}

// TestProvider unlocks the credential key with the passphrase and
// checks the provider backend is reachable.
func (a *App) TestProvider(ctx context.Context, id, passphrase string) error {
	p, err := a.providers.Get(id)
	if err != nil {
		return err
	}
	if p.Type == "local" {
		return a.providers.Test(ctx, id, nil)
	}

	unlocked, err := a.keeper.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking credentials: %w", err)
	}
	return a.providers.Test(ctx, id, unlocked)
}
