package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"backhaul/internal/backup"
)

// NextRun computes an approximate next execution time for a six-field
// cron expression ("sec min hour day month dow"), strictly after now.
// Only the minute, hour and day-of-week fields are interpreted; the
// result feeds schedule bookkeeping, actual ticking is done by the
// cron runner.
//
// A wildcard minute means minute zero. A wildcard hour keeps the
// current hour. Day-of-week 0 is Sunday; when the computed time has
// already passed, a set day-of-week advances to that weekday (a full
// week when it is today), otherwise a single day is added.
func NextRun(expr string, now time.Time) (time.Time, error) {
	fields := strings.Fields(expr)
	if len(fields) != 6 {
		return time.Time{}, fmt.Errorf("%w: want 6 fields, got %d", backup.ErrInvalidCron, len(fields))
	}

	minute := 0
	if fields[1] != "*" {
		m, err := strconv.Atoi(fields[1])
		if err != nil || m < 0 || m > 59 {
			return time.Time{}, fmt.Errorf("%w: bad minute %q", backup.ErrInvalidCron, fields[1])
		}
		minute = m
	}

	now = now.UTC()
	hour := now.Hour()
	if fields[2] != "*" {
		h, err := strconv.Atoi(fields[2])
		if err != nil || h < 0 || h > 23 {
			return time.Time{}, fmt.Errorf("%w: bad hour %q", backup.ErrInvalidCron, fields[2])
		}
		hour = h
	}

	dow := -1
	if fields[5] != "*" {
		d, err := strconv.Atoi(fields[5])
		if err != nil || d < 0 || d > 6 {
			return time.Time{}, fmt.Errorf("%w: bad day of week %q", backup.ErrInvalidCron, fields[5])
		}
		dow = d
	}

	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if candidate.After(now) {
		return candidate, nil
	}

	if dow >= 0 {
		current := int(now.Weekday())
		var ahead int
		if dow <= current {
			ahead = 7 - (current - dow)
		} else {
			ahead = dow - current
		}
		return candidate.AddDate(0, 0, ahead), nil
	}
	return candidate.AddDate(0, 0, 1), nil
}
