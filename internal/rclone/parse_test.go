package rclone

import (
	"strings"
	"testing"

	"backhaul/internal/backup"
)

func TestParseLog(t *testing.T) {
	t.Run("collects error lines", func(t *testing.T) {
		data := strings.Join([]string{
			`{"level":"error","msg":"Failed to copy: permission denied","time":"2024-01-15T10:30:00Z"}`,
			`{"level":"info","msg":"regular progress","time":"2024-01-15T10:30:05Z"}`,
			`{"level":"error","msg":"Failed to copy: connection reset","time":"2024-01-15T10:30:10Z"}`,
		}, "\n")

		result := &backup.TransferResult{}
		parseLog([]byte(data), result, backup.NewNopLogger())

		if result.ErrorCount != 2 {
			t.Errorf("ErrorCount = %d, want 2", result.ErrorCount)
		}
		if len(result.Errors) != 2 || result.Errors[0] != "Failed to copy: permission denied" {
			t.Errorf("Errors = %v", result.Errors)
		}
	})

	t.Run("last stats block wins", func(t *testing.T) {
		data := strings.Join([]string{
			`{"level":"info","msg":"progress","stats":{"transfers":1,"checks":2,"deletes":0,"bytes":100}}`,
			`{"level":"info","msg":"progress","stats":{"transfers":4,"checks":9,"deletes":1,"bytes":4096}}`,
		}, "\n")

		result := &backup.TransferResult{}
		parseLog([]byte(data), result, backup.NewNopLogger())

		if result.FilesTransferred != 4 {
			t.Errorf("FilesTransferred = %d, want 4", result.FilesTransferred)
		}
		if result.FilesChecked != 9 {
			t.Errorf("FilesChecked = %d, want 9", result.FilesChecked)
		}
		if result.FilesDeleted != 1 {
			t.Errorf("FilesDeleted = %d, want 1", result.FilesDeleted)
		}
		if result.BytesTransferred != 4096 {
			t.Errorf("BytesTransferred = %d, want 4096", result.BytesTransferred)
		}
	})

	t.Run("notice summary sets final file count", func(t *testing.T) {
		data := strings.Join([]string{
			`{"level":"info","msg":"progress","stats":{"transfers":2,"bytes":100}}`,
			`{"level":"notice","msg":"Transferred:            3 / 5, 60%"}`,
		}, "\n")

		result := &backup.TransferResult{}
		parseLog([]byte(data), result, backup.NewNopLogger())

		if result.FilesTransferred != 3 {
			t.Errorf("FilesTransferred = %d, want 3 (notice overrides stats)", result.FilesTransferred)
		}
	})

	t.Run("byte variant of the summary is skipped", func(t *testing.T) {
		data := strings.Join([]string{
			`{"level":"info","msg":"progress","stats":{"transfers":2,"bytes":100}}`,
			`{"level":"notice","msg":"Transferred:   	  1.5 MiB / 1.5 MiB, 100%, 0.488 MiB/s, ETA 0s"}`,
		}, "\n")

		result := &backup.TransferResult{}
		parseLog([]byte(data), result, backup.NewNopLogger())

		// "1.5 MiB" does not parse as an integer, so the stats value stands.
		if result.FilesTransferred != 2 {
			t.Errorf("FilesTransferred = %d, want 2", result.FilesTransferred)
		}
	})

	t.Run("transfer rate from a progress line", func(t *testing.T) {
		data := `{"level":"info","msg":"Transferred:   	  1.5 MiB / 10 MiB, 15%, 0.488 MiB/s, ETA 17s"}`

		result := &backup.TransferResult{}
		parseLog([]byte(data), result, backup.NewNopLogger())

		if result.TransferRateMBps != 0.488 {
			t.Errorf("TransferRateMBps = %v, want 0.488", result.TransferRateMBps)
		}
	})

	t.Run("uppercase levels fold the same way", func(t *testing.T) {
		data := strings.Join([]string{
			`{"level":"ERROR","msg":"Failed to copy: permission denied","time":"2024-01-15T10:30:00Z"}`,
			`{"level":"INFO","msg":"progress","stats":{"transfers":2,"checks":4,"deletes":0,"bytes":512}}`,
			`{"level":"NOTICE","msg":"Transferred:            3 / 5, 60%"}`,
		}, "\n")

		result := &backup.TransferResult{}
		parseLog([]byte(data), result, backup.NewNopLogger())

		if result.ErrorCount != 1 {
			t.Errorf("ErrorCount = %d, want 1", result.ErrorCount)
		}
		if result.FilesChecked != 4 {
			t.Errorf("FilesChecked = %d, want 4", result.FilesChecked)
		}
		if result.FilesTransferred != 3 {
			t.Errorf("FilesTransferred = %d, want 3", result.FilesTransferred)
		}
	})

	t.Run("malformed lines are skipped", func(t *testing.T) {
		data := strings.Join([]string{
			`not json at all`,
			``,
			`{"level":"error","msg":"real error"}`,
		}, "\n")

		result := &backup.TransferResult{}
		parseLog([]byte(data), result, backup.NewNopLogger())

		if result.ErrorCount != 1 {
			t.Errorf("ErrorCount = %d, want 1", result.ErrorCount)
		}
	})
}

func TestParseRate(t *testing.T) {
	for _, tc := range []struct {
		msg  string
		want float64
		ok   bool
	}{
		{"Transferred: 1.5 MiB / 10 MiB, 15%, 0.488 MiB/s, ETA 17s", 0.488, true},
		{"Transferred: 100 MiB / 100 MiB, 100%, 12.3 MiB/s, ETA 0s", 12.3, true},
		{"no rate here", 0, false},
		{"Transferred: junk MiB/s", 0, false},
	} {
		got, ok := parseRate(tc.msg)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseRate(%q) = %v, %v, want %v, %v", tc.msg, got, ok, tc.want, tc.ok)
		}
	}
}

func TestBuildArgs(t *testing.T) {
	t.Run("fixed flag order", func(t *testing.T) {
		r := NewRunner(Options{LogDir: "/tmp/logs"}, backup.NewNopLogger(), backup.UUIDGenerator{})
		args := r.buildArgs("/data", "s3:bucket/data", "/tmp/logs/rclone-1.log")

		want := []string{
			"sync", "/data", "s3:bucket/data",
			"--log-file", "/tmp/logs/rclone-1.log",
			"--use-json-log",
			"--log-level", "INFO",
			"--stats", "30s",
			"--stats-log-level", "INFO",
		}
		if len(args) != len(want) {
			t.Fatalf("buildArgs() = %v, want %v", args, want)
		}
		for i := range want {
			if args[i] != want[i] {
				t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
			}
		}
	})

	t.Run("optional flags", func(t *testing.T) {
		r := NewRunner(Options{
			Transfers:  8,
			Checkers:   16,
			DryRun:     true,
			Verbose:    true,
			ExtraFlags: []string{"--fast-list"},
		}, backup.NewNopLogger(), backup.UUIDGenerator{})
		args := strings.Join(r.buildArgs("/data", "s3:bucket", "x.log"), " ")

		for _, flag := range []string{"--transfers 8", "--checkers 16", "--dry-run", "-vv", "--fast-list"} {
			if !strings.Contains(args, flag) {
				t.Errorf("buildArgs() missing %q in %q", flag, args)
			}
		}
	})
}
