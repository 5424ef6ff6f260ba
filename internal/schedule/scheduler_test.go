package schedule_test

import (
	"context"
	"errors"
	"testing"

	"backhaul/internal/backup"
	"backhaul/internal/model"
	"backhaul/internal/schedule"
)

type staticStore struct {
	schedules []*model.Schedule
}

func (s *staticStore) ListEnabledSchedules() ([]*model.Schedule, error) {
	return s.schedules, nil
}

func noopRunner(context.Context, string, string) {}

func TestCronScheduler_Add(t *testing.T) {
	t.Run("registers a valid expression", func(t *testing.T) {
		s := schedule.NewCronScheduler(noopRunner, backup.NewNopLogger())
		if err := s.Add("sched-1", "job-1", "0 0 2 * * *"); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if s.Len() != 1 {
			t.Errorf("Len() = %d, want 1", s.Len())
		}
	})

	t.Run("rejects a bad expression", func(t *testing.T) {
		s := schedule.NewCronScheduler(noopRunner, backup.NewNopLogger())
		if err := s.Add("sched-1", "job-1", "not a cron"); !errors.Is(err, backup.ErrInvalidCron) {
			t.Errorf("Add() error = %v, want ErrInvalidCron", err)
		}
		if s.Len() != 0 {
			t.Errorf("Len() = %d, want 0", s.Len())
		}
	})

	t.Run("replaces an existing entry with the same id", func(t *testing.T) {
		s := schedule.NewCronScheduler(noopRunner, backup.NewNopLogger())
		if err := s.Add("sched-1", "job-1", "0 0 2 * * *"); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if err := s.Add("sched-1", "job-1", "0 30 4 * * *"); err != nil {
			t.Fatalf("Add() replacement error = %v", err)
		}
		if s.Len() != 1 {
			t.Errorf("Len() after replace = %d, want 1", s.Len())
		}
	})
}

func TestCronScheduler_Remove(t *testing.T) {
	s := schedule.NewCronScheduler(noopRunner, backup.NewNopLogger())
	if err := s.Add("sched-1", "job-1", "0 0 2 * * *"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	s.Remove("sched-1")
	if s.Len() != 0 {
		t.Errorf("Len() after remove = %d, want 0", s.Len())
	}

	// Removing an unknown id is a no-op.
	s.Remove("sched-2")
}

func TestCronScheduler_Load(t *testing.T) {
	store := &staticStore{schedules: []*model.Schedule{
		{ID: "sched-1", BackupJobID: "job-1", CronExpression: "0 0 2 * * *", Enabled: true},
		{ID: "sched-2", BackupJobID: "job-2", CronExpression: "garbage", Enabled: true},
		{ID: "sched-3", BackupJobID: "job-3", CronExpression: "0 0 4 * * 0", Enabled: true},
	}}

	s := schedule.NewCronScheduler(noopRunner, backup.NewNopLogger())
	loaded, err := s.Load(store)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != 2 {
		t.Errorf("Load() = %d, want 2 (bad expression skipped)", loaded)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}
