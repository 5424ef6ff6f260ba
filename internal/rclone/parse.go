package rclone

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"backhaul/internal/backup"
)

// logLine is one JSON record from rclone's --use-json-log output.
type logLine struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
	Time  string `json:"time"`
	Stats *stats `json:"stats"`
}

// stats is rclone's periodic counters block. The values are cumulative
// snapshots, so each one overwrites the last.
type stats struct {
	Transfers int64 `json:"transfers"`
	Checks    int64 `json:"checks"`
	Deletes   int64 `json:"deletes"`
	Bytes     int64 `json:"bytes"`
}

// parseLog folds every line of an rclone JSON log into result.
// Malformed lines are skipped.
func parseLog(data []byte, result *backup.TransferResult, logger backup.Logger) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec logLine
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			logger.Debug("skipping unparseable rclone log line", "line", line)
			continue
		}

		// rclone emits lowercase levels; match the uppercase spelling
		// some wrappers re-emit too.
		switch strings.ToLower(rec.Level) {
		case "info":
			if strings.Contains(rec.Msg, "Transferred:") && strings.Contains(rec.Msg, "ETA") {
				if rate, ok := parseRate(rec.Msg); ok {
					result.TransferRateMBps = rate
				}
			}
			if rec.Stats != nil {
				result.FilesTransferred = rec.Stats.Transfers
				result.FilesChecked = rec.Stats.Checks
				result.FilesDeleted = rec.Stats.Deletes
				result.BytesTransferred = rec.Stats.Bytes
			}
		case "error":
			result.ErrorCount++
			result.Errors = append(result.Errors, rec.Msg)
		case "notice":
			if strings.Contains(rec.Msg, "Transferred:") {
				if n, ok := parseTransferredFiles(rec.Msg); ok {
					result.FilesTransferred = n
				}
			}
		}
	}
}

// parseRate extracts the MiB/s figure from a progress line such as
// "Transferred: 1.5 MiB / 10 MiB, 15%, 0.488 MiB/s, ETA 17s".
func parseRate(msg string) (float64, bool) {
	idx := strings.Index(msg, "MiB/s")
	if idx < 0 {
		return 0, false
	}
	head := msg[:idx]
	if c := strings.LastIndex(head, ","); c >= 0 {
		head = head[c+1:]
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(head), 64)
	if err != nil {
		return 0, false
	}
	return rate, true
}

// parseTransferredFiles extracts N from a final summary line such as
// "Transferred: 3 / 5, 60%". The byte-total variant of the line does
// not parse as an integer and is ignored.
func parseTransferredFiles(msg string) (int64, bool) {
	idx := strings.Index(msg, "Transferred:")
	if idx < 0 {
		return 0, false
	}
	rest := msg[idx+len("Transferred:"):]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(rest[:slash]), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
