// Package app wires the application together and exposes the
// high-level operations consumed by the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"backhaul/internal/backup"
	"backhaul/internal/config"
	"backhaul/internal/database"
	"backhaul/internal/provider"
	"backhaul/internal/rclone"
	"backhaul/internal/scanner"
	"backhaul/internal/schedule"
	"backhaul/internal/secrets"
)

// App is the application layer between the CLI and the domain services.
// It constructs all dependencies from config and manages their lifecycle
// on Close.
type App struct {
	cfg          *config.Config
	store        *database.SQLiteStore
	keeper       *secrets.Keeper
	scanner      *scanner.Scanner
	orchestrator *backup.Orchestrator
	providers    *provider.Registry
	logger       backup.Logger
	clock        backup.Clock
	idgen        backup.IDGenerator
	logCloser    io.Closer
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "RunBackupJob", "Serve")
// and tags every log line. The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	opID := time.Now().UTC().Format("20060102T150405Z") + "-" + operation
	slogger, logCloser, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	if err := os.MkdirAll(cfg.Rclone.LogDir, 0755); err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("creating rclone log directory: %w", err)
	}
	if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	store, err := database.NewSQLiteStore(filepath.Join(cfg.Database.DataDir, "backhaul.db"))
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		logCloser.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	clock := backup.RealClock{}
	idgen := backup.UUIDGenerator{}

	sc := scanner.NewScanner(store, logger, clock, idgen, cfg.Scanner.HashWorkers)
	runner := rclone.NewRunner(rclone.Options{
		Binary:        cfg.Rclone.Binary,
		LogDir:        cfg.Rclone.LogDir,
		LogLevel:      cfg.Rclone.LogLevel,
		StatsInterval: cfg.Rclone.StatsInterval,
		Transfers:     cfg.Rclone.Transfers,
		Checkers:      cfg.Rclone.Checkers,
		DryRun:        cfg.Rclone.DryRun,
		Verbose:       cfg.Rclone.Verbose,
		ExtraFlags:    cfg.Rclone.ExtraFlags,
	}, logger, idgen)

	orch := backup.NewOrchestrator(store, runner, sc, schedule.NextRun, logger, clock, idgen)

	keeper := secrets.NewKeeper(cfg.Encryption)
	providers := provider.NewRegistry(store, keeper, logger, clock, idgen)

	return &App{
		cfg:          cfg,
		store:        store,
		keeper:       keeper,
		scanner:      sc,
		orchestrator: orch,
		providers:    providers,
		logger:       logger,
		clock:        clock,
		idgen:        idgen,
		logCloser:    logCloser,
	}, nil
}

// Close releases the database and log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}

// Keeper exposes the secrets keeper for key setup.
func (a *App) Keeper() *secrets.Keeper { return a.keeper }

// Serve runs the scheduler daemon until ctx is canceled. Enabled
// schedules are loaded from the store; each tick runs the bound backup
// job with scheduler attribution.
func (a *App) Serve(ctx context.Context) error {
	sched := schedule.NewCronScheduler(func(runCtx context.Context, backupJobID, scheduleID string) {
		if _, err := a.orchestrator.Run(runCtx, backupJobID, scheduleID); err != nil {
			a.logger.Error("scheduled run failed", "job_id", backupJobID, "schedule_id", scheduleID, "error", err)
		}
	}, a.logger)

	loaded, err := sched.Load(a.store)
	if err != nil {
		return err
	}
	a.logger.Info("scheduler started", "schedules", loaded)

	sched.Start()
	<-ctx.Done()

	a.logger.Info("scheduler stopping")
	<-sched.Stop().Done()
	return nil
}
