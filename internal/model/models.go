package model

import "time"

// Backup and scan job statuses.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Scan types recorded on history entries and scan jobs.
const (
	ScanTypeInitial   = "initial"
	ScanTypeManual    = "manual"
	ScanTypeBackupPre = "backup_pre"
)

// Execution log trigger sources.
const (
	TriggeredByManual    = "manual"
	TriggeredByScheduler = "scheduler"
)

// CatalogEntry is the latest observed state of one file on disk.
// There is exactly one row per file path; re-scans overwrite it in place.
type CatalogEntry struct {
	ID              string // UUID
	FilePath        string // Absolute path, unique
	FileName        string
	Extension       string // Lowercased, without dot; empty if none
	FileSize        int64
	ContentHash     string // SHA-256 hex digest
	CreatedAt       *time.Time
	ModifiedAt      *time.Time
	AccessedAt      *time.Time
	ParentDirectory string
	Depth           int
	LastScanAt      time.Time
	LastBackupAt    *time.Time
	BackupCount     int
	BackupJobIDs    []string // Provenance: every backup job that covered this file
	IsActive        bool
}

// HistoryEntry is an append-only record of a detected change to a
// CatalogEntry. Written only when at least one tracked field changed
// (or on first observation, with ScanType "initial").
type HistoryEntry struct {
	ID              string // UUID
	CatalogEntryID  string
	ScanJobID       string
	FileSize        int64
	ContentHash     string
	ModifiedAt      *time.Time
	AccessedAt      *time.Time
	SizeChanged     bool
	HashChanged     bool
	ModifiedChanged bool
	AccessedChanged bool
	SizeDelta       int64 // new size minus previous size
	DaysSinceAccess *int  // Day granularity, against the previously stored accessed_at
	DaysSinceModify *int  // Day granularity, against the previously stored modified_at
	ScanType        string
	CreatedAt       time.Time
}

// DirectoryAggregate is a per-directory rollup, upserted on every scan.
// DirectFiles and FileTypes cover immediate children only; TotalFiles and
// TotalSize include everything below.
type DirectoryAggregate struct {
	DirectoryPath     string // Unique
	DirectoryName     string
	Depth             int
	TotalFiles        int64
	DirectFiles       int64
	TotalSize         int64
	SubdirectoryCount int
	FileTypes         map[string]int // extension to count, immediate children only
	LastScanAt        time.Time
}

// ScanConfig is a named, reusable scan configuration. Created first,
// executed on demand, the same create-then-run pattern as BackupJob.
type ScanConfig struct {
	ID              string // UUID
	Name            string
	Description     string
	RootPath        string
	Recursive       bool
	MaxDepth        *int
	IncludePatterns []string
	ExcludePatterns []string
	MinFileSize     *int64
	MaxFileSize     *int64
	Status          string
	LastScanJobID   string
	TotalRuns       int
	SuccessfulRuns  int
	FailedRuns      int
	LastRunAt       *time.Time
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ScanJob is one execution of the cataloging traversal. Counters are
// written exactly once, at completion.
type ScanJob struct {
	ID                 string // UUID
	ScanConfigID       string // Empty for ad-hoc and pre-backup scans
	BackupJobID        string // Set when the scan ran as a pre-backup catalog pass
	RootPath           string
	Recursive          bool
	MaxDepth           *int
	IncludePatterns    []string
	ExcludePatterns    []string
	MinFileSize        *int64
	MaxFileSize        *int64
	ScanType           string
	Status             string
	StartedAt          *time.Time
	CompletedAt        *time.Time
	FilesScanned       int64
	DirectoriesScanned int64
	TotalSizeBytes     int64
	ErrorCount         int
	CreatedAt          time.Time
}

// BackupJob maps one or more source paths to ordered destination lists.
// Mappings holds the raw JSON object {"/src": ["dst1", "dst2"], ...};
// declared order is preserved by the mapping parser.
type BackupJob struct {
	ID        string // UUID
	Name      string
	Mappings  string // JSON object: source path to ordered destination paths
	Status    string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Schedule is a cron-driven recurring trigger bound to exactly one
// backup job. At most one schedule exists per job.
type Schedule struct {
	ID             string // UUID
	BackupJobID    string
	Name           string
	CronExpression string // 6-field "sec min hour day month dow"
	Enabled        bool
	NextRun        *time.Time
	LastRun        *time.Time
	LastStatus     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ExecutionLog records a single source-to-destination transfer invocation.
// Created before the invocation, completed after; never rewritten once
// its completion fields are set.
type ExecutionLog struct {
	ID               string // UUID
	BackupJobID      string
	ScheduleID       string // Empty for manual runs
	Status           string
	Command          string
	SourcePath       string
	DestinationPath  string
	StartedAt        time.Time
	CompletedAt      *time.Time
	FilesTransferred int64
	FilesChecked     int64
	FilesDeleted     int64
	BytesTransferred int64
	TransferRateMBps float64
	DurationSeconds  int64
	ErrorCount       int
	ErrorMessage     string
	Stdout           string
	Stderr           string
	TriggeredBy      string
	CreatedAt        time.Time
}

// DuplicateGroup is one set of active catalog entries sharing a content
// hash. WastedSpace = FileSize * (Count - 1).
type DuplicateGroup struct {
	ContentHash string
	Count       int64
	FileSize    int64
	WastedSpace int64
	Paths       []string
}

// CloudProvider is a stored transfer destination backend. Credentials
// are age-encrypted at rest.
type CloudProvider struct {
	ID                 string // UUID
	Name               string
	Type               string // "s3", "b2", "sftp", "local"
	RemoteName         string // rclone remote name, e.g. "offsite"
	Region             string
	Bucket             string
	Endpoint           string
	EncryptedAccessKey string // age ciphertext, base64
	EncryptedSecretKey string // age ciphertext, base64
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}
