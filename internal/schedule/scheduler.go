package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"backhaul/internal/backup"
	"backhaul/internal/model"
)

// cronParser accepts the six-field dialect with a seconds column.
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Validate checks that expr is acceptable to both the cron runner and
// the next-run calculator. Both consume every stored expression, so a
// schedule is only valid in their intersection.
func Validate(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("%w: %v", backup.ErrInvalidCron, err)
	}
	if _, err := NextRun(expr, time.Now()); err != nil {
		return err
	}
	return nil
}

// Runner is invoked on every tick with the schedule's bound backup job.
type Runner func(ctx context.Context, backupJobID, scheduleID string)

// Store is the subset of persistence the scheduler needs at startup.
type Store interface {
	ListEnabledSchedules() ([]*model.Schedule, error)
}

// CronScheduler is an explicit registry of enabled schedules over a
// cron runner. Entries are keyed by schedule id so they can be replaced
// or removed when a schedule changes.
type CronScheduler struct {
	cron   *cron.Cron
	runner Runner
	logger backup.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewCronScheduler(runner Runner, logger backup.Logger) *CronScheduler {
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC)),
		runner:  runner,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Load registers every enabled schedule from the store and returns the
// number registered. Schedules with expressions the runner rejects are
// skipped with a warning.
func (s *CronScheduler) Load(store Store) (int, error) {
	schedules, err := store.ListEnabledSchedules()
	if err != nil {
		return 0, fmt.Errorf("loading schedules: %w", err)
	}
	loaded := 0
	for _, sched := range schedules {
		if err := s.Add(sched.ID, sched.BackupJobID, sched.CronExpression); err != nil {
			s.logger.Warn("skipping schedule", "schedule_id", sched.ID, "error", err)
			continue
		}
		loaded++
	}
	return loaded, nil
}

// Add registers a schedule, replacing any existing entry with the same id.
func (s *CronScheduler) Add(scheduleID, backupJobID, expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[scheduleID]; ok {
		s.cron.Remove(old)
		delete(s.entries, scheduleID)
	}

	entryID, err := s.cron.AddFunc(expr, func() {
		s.logger.Info("schedule fired", "schedule_id", scheduleID, "job_id", backupJobID)
		s.runner(context.Background(), backupJobID, scheduleID)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", backup.ErrInvalidCron, err)
	}
	s.entries[scheduleID] = entryID
	return nil
}

// Remove unregisters a schedule. Removing an unknown id is a no-op.
func (s *CronScheduler) Remove(scheduleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[scheduleID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, scheduleID)
	}
}

// Len returns the number of registered schedules.
func (s *CronScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins ticking in its own goroutine.
func (s *CronScheduler) Start() { s.cron.Start() }

// Stop stops ticking. The returned context is done when in-flight runs
// have finished.
func (s *CronScheduler) Stop() context.Context { return s.cron.Stop() }
