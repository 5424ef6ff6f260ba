package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"backhaul/internal/app"
	"backhaul/internal/config"
	"backhaul/internal/model"
	"backhaul/internal/provider"
	"backhaul/internal/secrets"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "RunBackupJob", "Serve").
func newApp(operation string) (*app.App, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// promptSecret reads a value from the terminal without echoing it.
func promptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(value), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

var rootCmd = &cobra.Command{
	Use:   "backhaul",
	Short: "Backup orchestration and file intelligence",
}

// config commands

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Data Dir:      %s\n", cfg.Database.DataDir)
		fmt.Printf("Rclone binary: %s\n", cfg.Rclone.Binary)
		return nil
	},
}

// keys command

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the credential encryption key pair",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used to encrypt provider credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		keeper := secrets.NewKeeper(cfg.Encryption)
		if keeper.IsConfigured() {
			return fmt.Errorf("key pair already exists at %s", cfg.Encryption.PublicKeyPath)
		}

		passphrase, err := promptSecret("Passphrase")
		if err != nil {
			return err
		}
		confirm, err := promptSecret("Confirm passphrase")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := keeper.Setup(passphrase); err != nil {
			return fmt.Errorf("generating key pair: %w", err)
		}
		fmt.Printf("Key pair written to %s\n", cfg.Encryption.PublicKeyPath)
		return nil
	},
}

// job commands

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage backup jobs",
}

var jobCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a backup job",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		mappings, _ := cmd.Flags().GetString("mappings")

		a, err := newApp("CreateBackupJob")
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.CreateBackupJob(name, mappings)
		if err != nil {
			return err
		}
		fmt.Printf("Created backup job %s (%s)\n", job.ID, job.Name)
		return nil
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListBackupJobs")
		if err != nil {
			return err
		}
		defer a.Close()

		jobs, err := a.ListBackupJobs()
		if err != nil {
			return err
		}
		for _, job := range jobs {
			fmt.Printf("%s\t%s\t%s\t%s\n", job.ID, job.Name, job.Status, job.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
		}
		return nil
	},
}

var jobGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show one backup job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetBackupJob")
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.GetBackupJob(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:       %s\n", job.ID)
		fmt.Printf("Name:     %s\n", job.Name)
		fmt.Printf("Status:   %s\n", job.Status)
		fmt.Printf("Mappings: %s\n", job.Mappings)
		return nil
	},
}

var jobUpdateCmd = &cobra.Command{
	Use:   "update <job-id>",
	Short: "Update a backup job's name and mappings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		mappings, _ := cmd.Flags().GetString("mappings")

		a, err := newApp("UpdateBackupJob")
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.UpdateBackupJob(args[0], name, mappings)
		if err != nil {
			return err
		}
		fmt.Printf("Updated backup job %s\n", job.ID)
		return nil
	},
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a backup job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteBackupJob")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteBackupJob(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted backup job %s\n", args[0])
		return nil
	},
}

var jobRunCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Run a backup job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RunBackupJob")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := a.RunBackupJob(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Job %s finished: %s\n", result.JobID, result.Status)
		for _, log := range result.Logs {
			fmt.Printf("  %s -> %s: %s (%d files, %d bytes)\n",
				log.SourcePath, log.DestinationPath, log.Status, log.FilesTransferred, log.BytesTransferred)
		}
		return nil
	},
}

// schedule commands

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage job schedules",
}

var scheduleSetCmd = &cobra.Command{
	Use:   "set <job-id>",
	Short: "Create a schedule for a backup job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		cron, _ := cmd.Flags().GetString("cron")
		enabled, _ := cmd.Flags().GetBool("enabled")

		a, err := newApp("CreateSchedule")
		if err != nil {
			return err
		}
		defer a.Close()

		sched, err := a.CreateSchedule(args[0], name, cron, enabled)
		if err != nil {
			return err
		}
		fmt.Printf("Schedule %s created, next run %s\n", sched.ID, formatTime(sched.NextRun))
		return nil
	},
}

var scheduleGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show the schedule of a backup job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetSchedule")
		if err != nil {
			return err
		}
		defer a.Close()

		sched, err := a.GetScheduleForJob(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:          %s\n", sched.ID)
		fmt.Printf("Name:        %s\n", sched.Name)
		fmt.Printf("Cron:        %s\n", sched.CronExpression)
		fmt.Printf("Enabled:     %t\n", sched.Enabled)
		fmt.Printf("Next run:    %s\n", formatTime(sched.NextRun))
		fmt.Printf("Last run:    %s\n", formatTime(sched.LastRun))
		fmt.Printf("Last status: %s\n", sched.LastStatus)
		return nil
	},
}

var scheduleDeleteCmd = &cobra.Command{
	Use:   "delete <schedule-id>",
	Short: "Delete a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteSchedule")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteSchedule(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted schedule %s\n", args[0])
		return nil
	},
}

// logs commands

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List transfer execution logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, _ := cmd.Flags().GetString("job")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("ListExecutionLogs")
		if err != nil {
			return err
		}
		defer a.Close()

		logs, err := a.ListExecutionLogs(jobID, limit)
		if err != nil {
			return err
		}
		for _, log := range logs {
			fmt.Printf("%s\t%s\t%s -> %s\t%s\t%d files\n",
				log.ID, log.Status, log.SourcePath, log.DestinationPath,
				log.StartedAt.UTC().Format("2006-01-02T15:04:05Z"), log.FilesTransferred)
		}
		return nil
	},
}

var logsShowCmd = &cobra.Command{
	Use:   "show <log-id>",
	Short: "Show one execution log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetExecutionLog")
		if err != nil {
			return err
		}
		defer a.Close()

		log, err := a.GetExecutionLog(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:           %s\n", log.ID)
		fmt.Printf("Job:          %s\n", log.BackupJobID)
		fmt.Printf("Status:       %s\n", log.Status)
		fmt.Printf("Source:       %s\n", log.SourcePath)
		fmt.Printf("Destination:  %s\n", log.DestinationPath)
		fmt.Printf("Started:      %s\n", log.StartedAt.UTC().Format("2006-01-02T15:04:05Z"))
		fmt.Printf("Completed:    %s\n", formatTime(log.CompletedAt))
		fmt.Printf("Files:        %d transferred, %d checked, %d deleted\n",
			log.FilesTransferred, log.FilesChecked, log.FilesDeleted)
		fmt.Printf("Bytes:        %d (%.2f MiB/s)\n", log.BytesTransferred, log.TransferRateMBps)
		fmt.Printf("Errors:       %d\n", log.ErrorCount)
		if log.ErrorMessage != "" {
			fmt.Printf("Error detail: %s\n", log.ErrorMessage)
		}
		fmt.Printf("Command:      %s\n", log.Command)
		return nil
	},
}

// scan commands

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Manage file catalog scans",
}

var scanCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a reusable scan configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := app.ScanConfigParams{}
		params.Name, _ = cmd.Flags().GetString("name")
		params.Description, _ = cmd.Flags().GetString("description")
		params.RootPath, _ = cmd.Flags().GetString("path")
		params.Recursive, _ = cmd.Flags().GetBool("recursive")
		params.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
		params.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
		if cmd.Flags().Changed("max-depth") {
			depth, _ := cmd.Flags().GetInt("max-depth")
			params.MaxDepth = &depth
		}
		if cmd.Flags().Changed("min-size") {
			minSize, _ := cmd.Flags().GetInt64("min-size")
			params.MinFileSize = &minSize
		}
		if cmd.Flags().Changed("max-size") {
			maxSize, _ := cmd.Flags().GetInt64("max-size")
			params.MaxFileSize = &maxSize
		}

		a, err := newApp("CreateScanConfig")
		if err != nil {
			return err
		}
		defer a.Close()

		cfg, err := a.CreateScanConfig(params)
		if err != nil {
			return err
		}
		fmt.Printf("Created scan config %s (%s)\n", cfg.ID, cfg.Name)
		return nil
	},
}

var scanListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scan configurations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListScanConfigs")
		if err != nil {
			return err
		}
		defer a.Close()

		configs, err := a.ListScanConfigs()
		if err != nil {
			return err
		}
		for _, cfg := range configs {
			fmt.Printf("%s\t%s\t%s\t%s\truns=%d ok=%d failed=%d\n",
				cfg.ID, cfg.Name, cfg.RootPath, cfg.Status,
				cfg.TotalRuns, cfg.SuccessfulRuns, cfg.FailedRuns)
		}
		return nil
	},
}

var scanRunCmd = &cobra.Command{
	Use:   "run <config-id>",
	Short: "Run a scan configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RunScanConfig")
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.RunScanConfig(args[0])
		if err != nil {
			return err
		}
		printScanJob(job)
		return nil
	},
}

var scanPathCmd = &cobra.Command{
	Use:   "path <directory>",
	Short: "Run an ad-hoc scan of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp("ScanPath")
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.ScanPath(args[0], recursive)
		if err != nil {
			return err
		}
		printScanJob(job)
		return nil
	},
}

var scanJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List scan jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("ListScanJobs")
		if err != nil {
			return err
		}
		defer a.Close()

		jobs, err := a.ListScanJobs(limit)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			fmt.Printf("%s\t%s\t%s\t%s\t%d files\n",
				job.ID, job.ScanType, job.RootPath, job.Status, job.FilesScanned)
		}
		return nil
	},
}

var scanStatusCmd = &cobra.Command{
	Use:   "status <scan-job-id>",
	Short: "Show one scan job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetScanJob")
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.GetScanJob(args[0])
		if err != nil {
			return err
		}
		printScanJob(job)
		return nil
	},
}

func printScanJob(job *model.ScanJob) {
	fmt.Printf("Scan job:    %s\n", job.ID)
	fmt.Printf("Root:        %s\n", job.RootPath)
	fmt.Printf("Type:        %s\n", job.ScanType)
	fmt.Printf("Status:      %s\n", job.Status)
	fmt.Printf("Files:       %d\n", job.FilesScanned)
	fmt.Printf("Directories: %d\n", job.DirectoriesScanned)
	fmt.Printf("Bytes:       %d\n", job.TotalSizeBytes)
	fmt.Printf("Errors:      %d\n", job.ErrorCount)
}

// duplicates command

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List groups of files with identical content",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListDuplicateGroups")
		if err != nil {
			return err
		}
		defer a.Close()

		groups, err := a.ListDuplicateGroups()
		if err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Printf("%s\t%d copies\t%d bytes each\t%d bytes wasted\n",
				g.ContentHash[:12], g.Count, g.FileSize, g.WastedSpace)
			for _, p := range g.Paths {
				fmt.Printf("  %s\n", p)
			}
		}
		return nil
	},
}

// provider commands

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Manage transfer destination providers",
}

var providerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := provider.AddParams{}
		params.Name, _ = cmd.Flags().GetString("name")
		params.Type, _ = cmd.Flags().GetString("type")
		params.RemoteName, _ = cmd.Flags().GetString("remote")
		params.Region, _ = cmd.Flags().GetString("region")
		params.Bucket, _ = cmd.Flags().GetString("bucket")
		params.Endpoint, _ = cmd.Flags().GetString("endpoint")

		if params.Type != "local" {
			var err error
			if params.AccessKey, err = promptSecret("Access key"); err != nil {
				return err
			}
			if params.SecretKey, err = promptSecret("Secret key"); err != nil {
				return err
			}
		}

		a, err := newApp("AddProvider")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.AddProvider(params)
		if err != nil {
			return err
		}
		fmt.Printf("Registered provider %s (%s)\n", p.ID, p.Name)
		return nil
	},
}

var providerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListProviders")
		if err != nil {
			return err
		}
		defer a.Close()

		providers, err := a.ListProviders()
		if err != nil {
			return err
		}
		for _, p := range providers {
			fmt.Printf("%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Type, p.Bucket)
		}
		return nil
	},
}

var providerDeleteCmd = &cobra.Command{
	Use:   "delete <provider-id>",
	Short: "Delete a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteProvider")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteProvider(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted provider %s\n", args[0])
		return nil
	},
}

var providerTestCmd = &cobra.Command{
	Use:   "test <provider-id>",
	Short: "Check a provider is reachable with its stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := promptSecret("Passphrase (empty for local providers)")
		if err != nil {
			return err
		}

		a, err := newApp("TestProvider")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := a.TestProvider(ctx, args[0], strings.TrimSpace(passphrase)); err != nil {
			return err
		}
		fmt.Println("Provider reachable")
		return nil
	},
}

// serve command

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the schedule daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Serve")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Serve(ctx)
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// job subcommands
	jobCmd.AddCommand(jobCreateCmd)
	jobCreateCmd.Flags().String("name", "", "Job name")
	jobCreateCmd.Flags().String("mappings", "", `Mappings JSON, e.g. {"/data": ["remote:bucket/data"]}`)
	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobGetCmd)
	jobCmd.AddCommand(jobUpdateCmd)
	jobUpdateCmd.Flags().String("name", "", "Job name")
	jobUpdateCmd.Flags().String("mappings", "", "Mappings JSON")
	jobCmd.AddCommand(jobDeleteCmd)
	jobCmd.AddCommand(jobRunCmd)

	// schedule subcommands
	scheduleCmd.AddCommand(scheduleSetCmd)
	scheduleSetCmd.Flags().String("name", "", "Schedule name")
	scheduleSetCmd.Flags().String("cron", "", `Six-field cron expression, e.g. "0 0 2 * * 0"`)
	scheduleSetCmd.Flags().Bool("enabled", true, "Enable the schedule")
	scheduleCmd.AddCommand(scheduleGetCmd)
	scheduleCmd.AddCommand(scheduleDeleteCmd)

	// logs subcommands
	logsCmd.Flags().String("job", "", "Filter by backup job id")
	logsCmd.Flags().IntP("limit", "n", 50, "Maximum number of logs to show (capped at 200)")
	logsCmd.AddCommand(logsShowCmd)

	// scan subcommands
	scanCmd.AddCommand(scanCreateCmd)
	scanCreateCmd.Flags().String("name", "", "Config name")
	scanCreateCmd.Flags().String("description", "", "Config description")
	scanCreateCmd.Flags().String("path", "", "Root directory to scan")
	scanCreateCmd.Flags().BoolP("recursive", "r", true, "Recurse into subdirectories")
	scanCreateCmd.Flags().Int("max-depth", 0, "Maximum recursion depth")
	scanCreateCmd.Flags().StringSlice("include", nil, "Include glob patterns")
	scanCreateCmd.Flags().StringSlice("exclude", nil, "Exclude glob patterns")
	scanCreateCmd.Flags().Int64("min-size", 0, "Minimum file size in bytes")
	scanCreateCmd.Flags().Int64("max-size", 0, "Maximum file size in bytes")
	scanCmd.AddCommand(scanListCmd)
	scanCmd.AddCommand(scanRunCmd)
	scanCmd.AddCommand(scanPathCmd)
	scanPathCmd.Flags().BoolP("recursive", "r", true, "Recurse into subdirectories")
	scanCmd.AddCommand(scanJobsCmd)
	scanJobsCmd.Flags().IntP("limit", "n", 50, "Maximum number of jobs to show")
	scanCmd.AddCommand(scanStatusCmd)

	// provider subcommands
	providerCmd.AddCommand(providerAddCmd)
	providerAddCmd.Flags().String("name", "", "Provider name")
	providerAddCmd.Flags().String("type", "s3", "Provider type: s3, b2, sftp or local")
	providerAddCmd.Flags().String("remote", "", "Rclone remote name")
	providerAddCmd.Flags().String("region", "", "Region")
	providerAddCmd.Flags().String("bucket", "", "Bucket (or local path)")
	providerAddCmd.Flags().String("endpoint", "", "Custom endpoint URL")
	providerCmd.AddCommand(providerListCmd)
	providerCmd.AddCommand(providerDeleteCmd)
	providerCmd.AddCommand(providerTestCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(providerCmd)
	rootCmd.AddCommand(serveCmd)
}
