package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"backhaul/internal/model"
)

// PreScanner catalogs a source tree before it is transferred, so the
// catalog reflects the state that was backed up.
type PreScanner interface {
	PreScan(root, backupJobID string) error
}

// NextRunFunc computes the next scheduled run strictly after now.
type NextRunFunc func(expr string, now time.Time) (time.Time, error)

// RunResult is the outcome of one backup job run.
type RunResult struct {
	JobID  string
	Status string
	Logs   []*model.ExecutionLog
}

// Orchestrator runs backup jobs: it parses the job's mappings, catalogs
// each source, drives one transfer per destination, and records an
// execution log per transfer. A job succeeds only if every transfer
// succeeded.
type Orchestrator struct {
	store      Store
	transferer Transferer
	prescan    PreScanner
	nextRun    NextRunFunc
	logger     Logger
	clock      Clock
	idgen      IDGenerator

	mu      sync.Mutex
	running map[string]struct{}
}

// NewOrchestrator creates a new Orchestrator with the provided
// dependencies. prescan may be nil, which disables pre-backup cataloging.
func NewOrchestrator(store Store, transferer Transferer, prescan PreScanner, nextRun NextRunFunc, logger Logger, clock Clock, idgen IDGenerator) *Orchestrator {
	return &Orchestrator{
		store:      store,
		transferer: transferer,
		prescan:    prescan,
		nextRun:    nextRun,
		logger:     logger,
		clock:      clock,
		idgen:      idgen,
		running:    make(map[string]struct{}),
	}
}

// Run executes a backup job synchronously. scheduleID is empty for manual
// runs; when set, the run is recorded as scheduler-triggered and the
// schedule's bookkeeping is updated after the job completes.
//
// Execution logs are written even for failed transfers. A transfer
// failure does not stop the remaining destinations or mappings.
func (o *Orchestrator) Run(ctx context.Context, jobID, scheduleID string) (*RunResult, error) {
	job, err := o.store.GetBackupJob(jobID)
	if err != nil {
		return nil, fmt.Errorf("loading backup job: %w", err)
	}
	if job == nil || job.DeletedAt != nil {
		return nil, fmt.Errorf("backup job not found: %s", jobID)
	}

	if !o.acquire(jobID) {
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, jobID)
	}
	defer o.release(jobID)

	mappings, err := ParseMappings(job.Mappings)
	if err != nil {
		return nil, fmt.Errorf("parsing mappings for job %s: %w", jobID, err)
	}

	if err := o.store.SetBackupJobStatus(jobID, model.JobStatusRunning, o.clock.Now()); err != nil {
		return nil, fmt.Errorf("marking job running: %w", err)
	}

	triggeredBy := model.TriggeredByManual
	if scheduleID != "" {
		triggeredBy = model.TriggeredByScheduler
	}

	o.logger.Info("backup job started", "job_id", jobID, "mappings", len(mappings), "triggered_by", triggeredBy)

	result := &RunResult{JobID: jobID}
	allOK := true

	for _, mapping := range mappings {
		if ctx.Err() != nil {
			allOK = false
			break
		}

		// Pre-backup catalog pass is best effort: a scan failure must not
		// block the transfer itself.
		if o.prescan != nil {
			if err := o.prescan.PreScan(mapping.Source, jobID); err != nil {
				o.logger.Warn("pre-backup scan failed", "job_id", jobID, "source", mapping.Source, "error", err)
			}
		}

		for _, destination := range mapping.Destinations {
			if ctx.Err() != nil {
				allOK = false
				break
			}
			log, ok := o.runTransfer(ctx, jobID, scheduleID, triggeredBy, mapping.Source, destination)
			result.Logs = append(result.Logs, log)
			if !ok {
				allOK = false
			}
		}
	}

	status := model.JobStatusCompleted
	if !allOK {
		status = model.JobStatusFailed
	}
	result.Status = status

	if err := o.store.SetBackupJobStatus(jobID, status, o.clock.Now()); err != nil {
		return nil, fmt.Errorf("marking job %s: %w", status, err)
	}

	if scheduleID != "" {
		o.recordScheduleRun(scheduleID, status)
	}

	o.logger.Info("backup job finished", "job_id", jobID, "status", status, "transfers", len(result.Logs))
	return result, nil
}

// runTransfer drives one source-to-destination sync and its execution
// log. It returns the completed log and whether the transfer succeeded.
func (o *Orchestrator) runTransfer(ctx context.Context, jobID, scheduleID, triggeredBy, source, destination string) (*model.ExecutionLog, bool) {
	now := o.clock.Now()
	log := &model.ExecutionLog{
		ID:              o.idgen.New(),
		BackupJobID:     jobID,
		ScheduleID:      scheduleID,
		Status:          model.JobStatusRunning,
		SourcePath:      source,
		DestinationPath: destination,
		StartedAt:       now,
		TriggeredBy:     triggeredBy,
		CreatedAt:       now,
	}
	if err := o.store.CreateExecutionLog(log); err != nil {
		o.logger.Error("creating execution log", "job_id", jobID, "destination", destination, "error", err)
		return log, false
	}

	res, err := o.transferer.Sync(ctx, source, destination)

	completed := o.clock.Now()
	log.CompletedAt = &completed
	log.DurationSeconds = int64(completed.Sub(log.StartedAt) / time.Second)

	if err != nil {
		// The tool could not be run at all.
		log.Status = model.JobStatusFailed
		log.ErrorCount = 1
		log.ErrorMessage = err.Error()
	} else {
		log.Command = res.Command
		log.FilesTransferred = res.FilesTransferred
		log.FilesChecked = res.FilesChecked
		log.FilesDeleted = res.FilesDeleted
		log.BytesTransferred = res.BytesTransferred
		log.TransferRateMBps = res.TransferRateMBps
		log.ErrorCount = res.ErrorCount
		log.ErrorMessage = res.ErrorMessage()
		log.Stdout = res.Stdout
		log.Stderr = res.Stderr
		if res.Success() {
			log.Status = model.JobStatusCompleted
		} else {
			log.Status = model.JobStatusFailed
		}
	}

	if err := o.store.CompleteExecutionLog(log); err != nil {
		o.logger.Error("completing execution log", "log_id", log.ID, "error", err)
		return log, false
	}

	if log.Status != model.JobStatusCompleted {
		o.logger.Warn("transfer failed", "job_id", jobID, "source", source, "destination", destination, "error", log.ErrorMessage)
		return log, false
	}

	// Provenance stamping is best effort: the transfer already happened.
	touched, err := o.store.MarkCatalogBackedUp(source, jobID, completed)
	if err != nil {
		o.logger.Warn("stamping catalog provenance", "job_id", jobID, "source", source, "error", err)
	} else {
		o.logger.Debug("catalog provenance stamped", "job_id", jobID, "source", source, "entries", touched)
	}
	return log, true
}

// recordScheduleRun writes last_run/last_status/next_run after a
// scheduler-triggered job finished. Failures are logged, not returned:
// the job outcome is already recorded.
func (o *Orchestrator) recordScheduleRun(scheduleID, status string) {
	schedule, err := o.store.GetSchedule(scheduleID)
	if err != nil || schedule == nil {
		o.logger.Warn("loading schedule after run", "schedule_id", scheduleID, "error", err)
		return
	}

	now := o.clock.Now()
	var next *time.Time
	if o.nextRun != nil {
		if n, err := o.nextRun(schedule.CronExpression, now); err == nil {
			next = &n
		} else {
			o.logger.Warn("computing next run", "schedule_id", scheduleID, "error", err)
		}
	}
	if err := o.store.UpdateScheduleRun(scheduleID, now, status, next); err != nil {
		o.logger.Warn("updating schedule after run", "schedule_id", scheduleID, "error", err)
	}
}

func (o *Orchestrator) acquire(jobID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, held := o.running[jobID]; held {
		return false
	}
	o.running[jobID] = struct{}{}
	return true
}

func (o *Orchestrator) release(jobID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.running, jobID)
}
