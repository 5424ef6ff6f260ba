// Package rclone wraps the external rclone binary for one-shot sync
// invocations. Telemetry is taken from an ephemeral JSON log file that
// rclone writes during the run.
package rclone

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"backhaul/internal/backup"
)

// Options controls how the rclone binary is invoked.
type Options struct {
	Binary        string   // binary name or path, default "rclone"
	LogDir        string   // directory for ephemeral JSON log files
	LogLevel      string   // rclone --log-level, default "INFO"
	StatsInterval string   // rclone --stats, default "30s"
	Transfers     int      // --transfers when > 0
	Checkers      int      // --checkers when > 0
	DryRun        bool
	Verbose       bool
	ExtraFlags    []string
}

// Runner implements backup.Transferer on top of rclone sync.
type Runner struct {
	opts   Options
	logger backup.Logger
	idgen  backup.IDGenerator
}

var _ backup.Transferer = (*Runner)(nil)

func NewRunner(opts Options, logger backup.Logger, idgen backup.IDGenerator) *Runner {
	if opts.Binary == "" {
		opts.Binary = "rclone"
	}
	if opts.LogLevel == "" {
		opts.LogLevel = "INFO"
	}
	if opts.StatsInterval == "" {
		opts.StatsInterval = "30s"
	}
	return &Runner{opts: opts, logger: logger, idgen: idgen}
}

// Sync runs `rclone sync source destination` to completion. A non-zero
// exit code is reported through the result; the returned error is
// reserved for failures to spawn or wait on the process.
func (r *Runner) Sync(ctx context.Context, source, destination string) (*backup.TransferResult, error) {
	logPath := filepath.Join(r.opts.LogDir, fmt.Sprintf("rclone-%s.log", r.idgen.New()))
	args := r.buildArgs(source, destination, logPath)

	cmd := exec.CommandContext(ctx, r.opts.Binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stderr pipe: %w", err)
	}

	r.logger.Info("rclone sync starting", "source", source, "destination", destination)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting rclone: %w", err)
	}

	// Both streams must be drained before Wait, or a chatty run can
	// deadlock on a full pipe.
	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		io.Copy(&outBuf, stdout)
	}()
	go func() {
		defer wg.Done()
		io.Copy(&errBuf, stderr)
	}()
	wg.Wait()

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("waiting for rclone: %w", err)
		}
	}

	result := &backup.TransferResult{
		ExitCode: exitCode,
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		Command:  r.opts.Binary + " " + strings.Join(args, " "),
	}
	r.parseLogFile(logPath, result)

	r.logger.Info("rclone sync finished",
		"source", source, "destination", destination,
		"exit_code", exitCode, "files", result.FilesTransferred, "bytes", result.BytesTransferred)
	return result, nil
}

func (r *Runner) buildArgs(source, destination, logPath string) []string {
	args := []string{
		"sync", source, destination,
		"--log-file", logPath,
		"--use-json-log",
		"--log-level", r.opts.LogLevel,
		"--stats", r.opts.StatsInterval,
		"--stats-log-level", "INFO",
	}
	if r.opts.Transfers > 0 {
		args = append(args, "--transfers", strconv.Itoa(r.opts.Transfers))
	}
	if r.opts.Checkers > 0 {
		args = append(args, "--checkers", strconv.Itoa(r.opts.Checkers))
	}
	if r.opts.DryRun {
		args = append(args, "--dry-run")
	}
	if r.opts.Verbose {
		args = append(args, "-vv")
	}
	return append(args, r.opts.ExtraFlags...)
}

// parseLogFile reads the ephemeral JSON log, folds its telemetry into
// result, and removes the file. An unreadable log leaves the result's
// telemetry at zero; the sync outcome is still the exit code.
func (r *Runner) parseLogFile(logPath string, result *backup.TransferResult) {
	data, err := os.ReadFile(logPath)
	if err != nil {
		r.logger.Warn("reading rclone log", "path", logPath, "error", err)
		return
	}
	parseLog(data, result, r.logger)
	if err := os.Remove(logPath); err != nil {
		r.logger.Warn("removing rclone log", "path", logPath, "error", err)
	}
}
