package schedule_test

import (
	"errors"
	"testing"
	"time"

	"backhaul/internal/backup"
	"backhaul/internal/schedule"
)

func TestNextRun(t *testing.T) {
	// A Monday.
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	t.Run("later today when the time has not passed", func(t *testing.T) {
		next, err := schedule.NextRun("0 0 14 * * *", now)
		if err != nil {
			t.Fatalf("NextRun() error = %v", err)
		}
		want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("NextRun() = %v, want %v", next, want)
		}
	})

	t.Run("tomorrow when the time has passed", func(t *testing.T) {
		next, err := schedule.NextRun("0 0 2 * * *", now)
		if err != nil {
			t.Fatalf("NextRun() error = %v", err)
		}
		want := time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("NextRun() = %v, want %v", next, want)
		}
	})

	t.Run("wildcard minute means minute zero", func(t *testing.T) {
		next, err := schedule.NextRun("0 * 14 * * *", now)
		if err != nil {
			t.Fatalf("NextRun() error = %v", err)
		}
		want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("NextRun() = %v, want %v", next, want)
		}
	})

	t.Run("wildcard hour keeps the current hour", func(t *testing.T) {
		// 10:45 is after 10:30, still today.
		next, err := schedule.NextRun("0 45 * * * *", now)
		if err != nil {
			t.Fatalf("NextRun() error = %v", err)
		}
		want := time.Date(2024, 1, 15, 10, 45, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("NextRun() = %v, want %v", next, want)
		}
	})

	t.Run("day of week later this week", func(t *testing.T) {
		// Friday is dow 5; now is Monday and 02:00 has passed.
		next, err := schedule.NextRun("0 0 2 * * 5", now)
		if err != nil {
			t.Fatalf("NextRun() error = %v", err)
		}
		want := time.Date(2024, 1, 19, 2, 0, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("NextRun() = %v, want %v", next, want)
		}
		if next.Weekday() != time.Friday {
			t.Errorf("NextRun() weekday = %v, want Friday", next.Weekday())
		}
	})

	t.Run("day of week today advances a full week", func(t *testing.T) {
		// Monday is dow 1 and 02:00 has already passed.
		next, err := schedule.NextRun("0 0 2 * * 1", now)
		if err != nil {
			t.Fatalf("NextRun() error = %v", err)
		}
		want := time.Date(2024, 1, 22, 2, 0, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("NextRun() = %v, want %v", next, want)
		}
	})

	t.Run("day of week earlier this week wraps to next week", func(t *testing.T) {
		// Sunday is dow 0; from Monday that is six days ahead.
		next, err := schedule.NextRun("0 0 2 * * 0", now)
		if err != nil {
			t.Fatalf("NextRun() error = %v", err)
		}
		want := time.Date(2024, 1, 21, 2, 0, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("NextRun() = %v, want %v", next, want)
		}
	})

	t.Run("result is strictly after now", func(t *testing.T) {
		// Exactly now: must not return the current instant.
		next, err := schedule.NextRun("0 30 10 * * *", now)
		if err != nil {
			t.Fatalf("NextRun() error = %v", err)
		}
		if !next.After(now) {
			t.Errorf("NextRun() = %v, want after %v", next, now)
		}
		want := time.Date(2024, 1, 16, 10, 30, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("NextRun() = %v, want %v", next, want)
		}
	})

	t.Run("rejects malformed expressions", func(t *testing.T) {
		for _, expr := range []string{
			"",
			"0 0 2 * *",       // five fields
			"0 0 2 * * * *",   // seven fields
			"0 61 2 * * *",    // minute out of range
			"0 0 25 * * *",    // hour out of range
			"0 0 2 * * 7",     // dow out of range
			"0 abc 2 * * *",   // not a number
			"0 0 2 * * mon",   // names not supported
		} {
			if _, err := schedule.NextRun(expr, now); !errors.Is(err, backup.ErrInvalidCron) {
				t.Errorf("NextRun(%q) error = %v, want ErrInvalidCron", expr, err)
			}
		}
	})
}

func TestValidate(t *testing.T) {
	if err := schedule.Validate("0 0 2 * * 0"); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	// The cron runner accepts ranges but the next-run calculator does not.
	if err := schedule.Validate("0 0 2-4 * * *"); !errors.Is(err, backup.ErrInvalidCron) {
		t.Errorf("Validate() error = %v, want ErrInvalidCron", err)
	}
	if err := schedule.Validate("not a cron"); !errors.Is(err, backup.ErrInvalidCron) {
		t.Errorf("Validate() error = %v, want ErrInvalidCron", err)
	}
}
