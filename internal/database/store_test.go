package database_test

import (
	"path/filepath"
	"testing"
	"time"

	"backhaul/internal/database"
	"backhaul/internal/model"
	"backhaul/internal/testutil"
)

var baseTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func newBackupJob(id string, created time.Time) *model.BackupJob {
	return &model.BackupJob{
		ID:        id,
		Name:      "job " + id,
		Mappings:  `{"/data": ["s3:bucket/data"]}`,
		Status:    model.JobStatusPending,
		IsActive:  true,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func newCatalogEntry(id, path string, size int64, hash string) *model.CatalogEntry {
	return &model.CatalogEntry{
		ID:              id,
		FilePath:        path,
		FileName:        filepath.Base(path),
		FileSize:        size,
		ContentHash:     hash,
		ParentDirectory: "/data",
		Depth:           1,
		LastScanAt:      baseTime,
		IsActive:        true,
	}
}

func TestSQLiteStore_BackupJobs(t *testing.T) {
	t.Run("create and get", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		if err := store.CreateBackupJob(newBackupJob("job-1", baseTime)); err != nil {
			t.Fatalf("CreateBackupJob() error = %v", err)
		}

		job, err := store.GetBackupJob("job-1")
		if err != nil {
			t.Fatalf("GetBackupJob() error = %v", err)
		}
		if job == nil {
			t.Fatal("GetBackupJob() = nil, want job")
		}
		if job.Mappings != `{"/data": ["s3:bucket/data"]}` {
			t.Errorf("Mappings = %q", job.Mappings)
		}
		if job.DeletedAt != nil {
			t.Errorf("DeletedAt = %v, want nil", job.DeletedAt)
		}
	})

	t.Run("get unknown id returns nil", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		job, err := store.GetBackupJob("missing")
		if err != nil {
			t.Fatalf("GetBackupJob() error = %v", err)
		}
		if job != nil {
			t.Errorf("GetBackupJob() = %v, want nil", job)
		}
	})

	t.Run("soft delete hides the job from listings", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.CreateBackupJob(newBackupJob("job-1", baseTime))
		store.CreateBackupJob(newBackupJob("job-2", baseTime.Add(time.Minute)))

		if err := store.SoftDeleteBackupJob("job-1", baseTime.Add(time.Hour)); err != nil {
			t.Fatalf("SoftDeleteBackupJob() error = %v", err)
		}

		jobs, err := store.ListBackupJobs()
		if err != nil {
			t.Fatalf("ListBackupJobs() error = %v", err)
		}
		if len(jobs) != 1 || jobs[0].ID != "job-2" {
			t.Errorf("ListBackupJobs() = %v, want only job-2", jobs)
		}

		// The row survives for history; Get still returns it with DeletedAt set.
		deleted, err := store.GetBackupJob("job-1")
		if err != nil {
			t.Fatalf("GetBackupJob() error = %v", err)
		}
		if deleted == nil || deleted.DeletedAt == nil {
			t.Errorf("deleted job = %+v, want DeletedAt set", deleted)
		}
	})

	t.Run("list is newest first", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.CreateBackupJob(newBackupJob("old", baseTime))
		store.CreateBackupJob(newBackupJob("new", baseTime.Add(time.Hour)))

		jobs, err := store.ListBackupJobs()
		if err != nil {
			t.Fatalf("ListBackupJobs() error = %v", err)
		}
		if len(jobs) != 2 || jobs[0].ID != "new" {
			t.Errorf("ListBackupJobs() order = %v, want new first", jobs)
		}
	})
}

func TestSQLiteStore_Schedules(t *testing.T) {
	t.Run("one schedule per job", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.CreateBackupJob(newBackupJob("job-1", baseTime))

		first := &model.Schedule{
			ID: "sched-1", BackupJobID: "job-1", Name: "nightly",
			CronExpression: "0 0 2 * * *", Enabled: true,
			CreatedAt: baseTime, UpdatedAt: baseTime,
		}
		if err := store.CreateSchedule(first); err != nil {
			t.Fatalf("CreateSchedule() error = %v", err)
		}

		second := &model.Schedule{
			ID: "sched-2", BackupJobID: "job-1", Name: "weekly",
			CronExpression: "0 0 4 * * 0", Enabled: true,
			CreatedAt: baseTime, UpdatedAt: baseTime,
		}
		if err := store.CreateSchedule(second); err == nil {
			t.Error("CreateSchedule() second schedule for same job succeeded, want unique violation")
		}
	})

	t.Run("lookup by job id", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.CreateBackupJob(newBackupJob("job-1", baseTime))
		store.CreateSchedule(&model.Schedule{
			ID: "sched-1", BackupJobID: "job-1", CronExpression: "0 0 2 * * *",
			Enabled: true, CreatedAt: baseTime, UpdatedAt: baseTime,
		})

		sched, err := store.GetScheduleForJob("job-1")
		if err != nil {
			t.Fatalf("GetScheduleForJob() error = %v", err)
		}
		if sched == nil || sched.ID != "sched-1" {
			t.Errorf("GetScheduleForJob() = %v, want sched-1", sched)
		}
	})

	t.Run("only enabled schedules are listed", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.CreateBackupJob(newBackupJob("job-1", baseTime))
		store.CreateBackupJob(newBackupJob("job-2", baseTime))
		store.CreateSchedule(&model.Schedule{
			ID: "on", BackupJobID: "job-1", CronExpression: "0 0 2 * * *",
			Enabled: true, CreatedAt: baseTime, UpdatedAt: baseTime,
		})
		store.CreateSchedule(&model.Schedule{
			ID: "off", BackupJobID: "job-2", CronExpression: "0 0 3 * * *",
			Enabled: false, CreatedAt: baseTime, UpdatedAt: baseTime,
		})

		schedules, err := store.ListEnabledSchedules()
		if err != nil {
			t.Fatalf("ListEnabledSchedules() error = %v", err)
		}
		if len(schedules) != 1 || schedules[0].ID != "on" {
			t.Errorf("ListEnabledSchedules() = %v, want only 'on'", schedules)
		}
	})

	t.Run("run bookkeeping", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.CreateBackupJob(newBackupJob("job-1", baseTime))
		store.CreateSchedule(&model.Schedule{
			ID: "sched-1", BackupJobID: "job-1", CronExpression: "0 0 2 * * *",
			Enabled: true, CreatedAt: baseTime, UpdatedAt: baseTime,
		})

		ran := baseTime.Add(time.Hour)
		next := ran.Add(24 * time.Hour)
		if err := store.UpdateScheduleRun("sched-1", ran, model.JobStatusCompleted, &next); err != nil {
			t.Fatalf("UpdateScheduleRun() error = %v", err)
		}

		sched, _ := store.GetSchedule("sched-1")
		if sched.LastStatus != model.JobStatusCompleted {
			t.Errorf("LastStatus = %q, want completed", sched.LastStatus)
		}
		if sched.LastRun == nil || !sched.LastRun.Equal(ran) {
			t.Errorf("LastRun = %v, want %v", sched.LastRun, ran)
		}
		if sched.NextRun == nil || !sched.NextRun.Equal(next) {
			t.Errorf("NextRun = %v, want %v", sched.NextRun, next)
		}
	})
}

func TestSQLiteStore_ExecutionLogs(t *testing.T) {
	addLog := func(t *testing.T, store *database.SQLiteStore, id, jobID string, started time.Time) {
		t.Helper()
		err := store.CreateExecutionLog(&model.ExecutionLog{
			ID: id, BackupJobID: jobID, Status: model.JobStatusRunning,
			SourcePath: "/data", DestinationPath: "s3:bucket",
			StartedAt: started, TriggeredBy: model.TriggeredByManual, CreatedAt: started,
		})
		if err != nil {
			t.Fatalf("CreateExecutionLog(%s) error = %v", id, err)
		}
	}

	t.Run("newest first with a limit", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.CreateBackupJob(newBackupJob("job-1", baseTime))
		addLog(t, store, "log-1", "job-1", baseTime)
		addLog(t, store, "log-2", "job-1", baseTime.Add(time.Minute))
		addLog(t, store, "log-3", "job-1", baseTime.Add(2*time.Minute))

		logs, err := store.ListExecutionLogs("", 2)
		if err != nil {
			t.Fatalf("ListExecutionLogs() error = %v", err)
		}
		if len(logs) != 2 || logs[0].ID != "log-3" || logs[1].ID != "log-2" {
			t.Errorf("ListExecutionLogs() = %v, want [log-3 log-2]", logs)
		}
	})

	t.Run("filter by job", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.CreateBackupJob(newBackupJob("job-1", baseTime))
		store.CreateBackupJob(newBackupJob("job-2", baseTime))
		addLog(t, store, "log-1", "job-1", baseTime)
		addLog(t, store, "log-2", "job-2", baseTime.Add(time.Minute))

		logs, err := store.ListExecutionLogs("job-2", 10)
		if err != nil {
			t.Fatalf("ListExecutionLogs() error = %v", err)
		}
		if len(logs) != 1 || logs[0].ID != "log-2" {
			t.Errorf("ListExecutionLogs(job-2) = %v, want [log-2]", logs)
		}
	})

	t.Run("complete fills telemetry", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.CreateBackupJob(newBackupJob("job-1", baseTime))
		addLog(t, store, "log-1", "job-1", baseTime)

		completed := baseTime.Add(90 * time.Second)
		err := store.CompleteExecutionLog(&model.ExecutionLog{
			ID: "log-1", Status: model.JobStatusCompleted, Command: "rclone sync /data s3:bucket",
			CompletedAt: &completed, FilesTransferred: 12, FilesChecked: 40,
			BytesTransferred: 4096, TransferRateMBps: 1.5, DurationSeconds: 90,
		})
		if err != nil {
			t.Fatalf("CompleteExecutionLog() error = %v", err)
		}

		log, err := store.GetExecutionLog("log-1")
		if err != nil {
			t.Fatalf("GetExecutionLog() error = %v", err)
		}
		if log.Status != model.JobStatusCompleted || log.FilesTransferred != 12 {
			t.Errorf("log = %+v", log)
		}
		if log.TransferRateMBps != 1.5 {
			t.Errorf("TransferRateMBps = %v, want 1.5", log.TransferRateMBps)
		}
		if log.DurationSeconds != 90 {
			t.Errorf("DurationSeconds = %d, want 90", log.DurationSeconds)
		}
	})
}

func TestSQLiteStore_MarkCatalogBackedUp(t *testing.T) {
	t.Run("stamps the source tree by prefix", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.InsertCatalogEntry(newCatalogEntry("e1", "/data/a.txt", 10, "h1"))
		store.InsertCatalogEntry(newCatalogEntry("e2", "/data/sub/b.txt", 20, "h2"))
		store.InsertCatalogEntry(newCatalogEntry("e3", "/datax/c.txt", 30, "h3"))
		store.InsertCatalogEntry(newCatalogEntry("e4", "/other/d.txt", 40, "h4"))

		when := baseTime.Add(time.Hour)
		touched, err := store.MarkCatalogBackedUp("/data", "job-1", when)
		if err != nil {
			t.Fatalf("MarkCatalogBackedUp() error = %v", err)
		}
		if touched != 2 {
			t.Errorf("MarkCatalogBackedUp() = %d, want 2 (/datax must not match)", touched)
		}

		entry, _ := store.GetCatalogEntryByPath("/data/sub/b.txt")
		if entry.BackupCount != 1 {
			t.Errorf("BackupCount = %d, want 1", entry.BackupCount)
		}
		if entry.LastBackupAt == nil || !entry.LastBackupAt.Equal(when) {
			t.Errorf("LastBackupAt = %v, want %v", entry.LastBackupAt, when)
		}
		if len(entry.BackupJobIDs) != 1 || entry.BackupJobIDs[0] != "job-1" {
			t.Errorf("BackupJobIDs = %v, want [job-1]", entry.BackupJobIDs)
		}

		outside, _ := store.GetCatalogEntryByPath("/datax/c.txt")
		if outside.BackupCount != 0 {
			t.Errorf("outside BackupCount = %d, want 0", outside.BackupCount)
		}
	})

	t.Run("repeat backups count but do not duplicate the job id", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.InsertCatalogEntry(newCatalogEntry("e1", "/data/a.txt", 10, "h1"))

		store.MarkCatalogBackedUp("/data", "job-1", baseTime)
		store.MarkCatalogBackedUp("/data", "job-1", baseTime.Add(time.Hour))
		store.MarkCatalogBackedUp("/data", "job-2", baseTime.Add(2*time.Hour))

		entry, _ := store.GetCatalogEntryByPath("/data/a.txt")
		if entry.BackupCount != 3 {
			t.Errorf("BackupCount = %d, want 3", entry.BackupCount)
		}
		if len(entry.BackupJobIDs) != 2 {
			t.Errorf("BackupJobIDs = %v, want [job-1 job-2]", entry.BackupJobIDs)
		}
	})

	t.Run("wildcard characters in the source path stay literal", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		store.InsertCatalogEntry(newCatalogEntry("e1", "/data/50%/report.txt", 10, "h1"))
		store.InsertCatalogEntry(newCatalogEntry("e2", "/data/500x/report.txt", 20, "h2"))
		store.InsertCatalogEntry(newCatalogEntry("e3", "/data/a_b/notes.txt", 30, "h3"))
		store.InsertCatalogEntry(newCatalogEntry("e4", "/data/axb/notes.txt", 40, "h4"))

		touched, err := store.MarkCatalogBackedUp("/data/50%", "job-1", baseTime)
		if err != nil {
			t.Fatalf("MarkCatalogBackedUp() error = %v", err)
		}
		if touched != 1 {
			t.Errorf("MarkCatalogBackedUp() = %d, want 1 (%% must not act as a wildcard)", touched)
		}
		other, _ := store.GetCatalogEntryByPath("/data/500x/report.txt")
		if other.BackupCount != 0 {
			t.Errorf("/data/500x BackupCount = %d, want 0", other.BackupCount)
		}

		touched, err = store.MarkCatalogBackedUp("/data/a_b", "job-2", baseTime)
		if err != nil {
			t.Fatalf("MarkCatalogBackedUp() error = %v", err)
		}
		if touched != 1 {
			t.Errorf("MarkCatalogBackedUp() = %d, want 1 (_ must not act as a wildcard)", touched)
		}
		other, _ = store.GetCatalogEntryByPath("/data/axb/notes.txt")
		if other.BackupCount != 0 {
			t.Errorf("/data/axb BackupCount = %d, want 0", other.BackupCount)
		}
	})

	t.Run("inactive entries are skipped", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		entry := newCatalogEntry("e1", "/data/a.txt", 10, "h1")
		entry.IsActive = false
		store.InsertCatalogEntry(entry)

		touched, err := store.MarkCatalogBackedUp("/data", "job-1", baseTime)
		if err != nil {
			t.Fatalf("MarkCatalogBackedUp() error = %v", err)
		}
		if touched != 0 {
			t.Errorf("MarkCatalogBackedUp() = %d, want 0", touched)
		}
	})
}

func TestSQLiteStore_FindDuplicateGroups(t *testing.T) {
	store := testutil.NewTestStore(t)
	store.InsertCatalogEntry(newCatalogEntry("e1", "/data/a.txt", 100, "samehash"))
	store.InsertCatalogEntry(newCatalogEntry("e2", "/data/b.txt", 100, "samehash"))
	store.InsertCatalogEntry(newCatalogEntry("e3", "/data/c.txt", 100, "samehash"))
	store.InsertCatalogEntry(newCatalogEntry("e4", "/data/d.txt", 5000, "bighash"))
	store.InsertCatalogEntry(newCatalogEntry("e5", "/data/e.txt", 5000, "bighash"))
	store.InsertCatalogEntry(newCatalogEntry("e6", "/data/unique.txt", 9999, "lonely"))

	groups, err := store.FindDuplicateGroups()
	if err != nil {
		t.Fatalf("FindDuplicateGroups() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("FindDuplicateGroups() = %d groups, want 2", len(groups))
	}

	// Largest wasted space first: bighash wastes 5000, samehash wastes 200.
	if groups[0].ContentHash != "bighash" {
		t.Errorf("groups[0] = %q, want bighash", groups[0].ContentHash)
	}
	if groups[0].WastedSpace != 5000 {
		t.Errorf("bighash WastedSpace = %d, want 5000", groups[0].WastedSpace)
	}
	if groups[1].Count != 3 {
		t.Errorf("samehash Count = %d, want 3", groups[1].Count)
	}
	if groups[1].WastedSpace != 200 {
		t.Errorf("samehash WastedSpace = %d, want 200", groups[1].WastedSpace)
	}
	if len(groups[1].Paths) != 3 {
		t.Errorf("samehash Paths = %v, want 3 paths", groups[1].Paths)
	}
}

func TestSQLiteStore_ScanConfigRuns(t *testing.T) {
	store := testutil.NewTestStore(t)
	cfg := &model.ScanConfig{
		ID: "cfg-1", Name: "media", RootPath: "/data/media", Recursive: true,
		Status: model.JobStatusPending, IsActive: true,
		CreatedAt: baseTime, UpdatedAt: baseTime,
	}
	if err := store.CreateScanConfig(cfg); err != nil {
		t.Fatalf("CreateScanConfig() error = %v", err)
	}

	store.RecordScanConfigRun("cfg-1", "scan-1", model.JobStatusCompleted, true, baseTime.Add(time.Hour))
	store.RecordScanConfigRun("cfg-1", "scan-2", model.JobStatusFailed, false, baseTime.Add(2*time.Hour))
	store.RecordScanConfigRun("cfg-1", "scan-3", model.JobStatusCompleted, true, baseTime.Add(3*time.Hour))

	got, err := store.GetScanConfig("cfg-1")
	if err != nil {
		t.Fatalf("GetScanConfig() error = %v", err)
	}
	if got.TotalRuns != 3 || got.SuccessfulRuns != 2 || got.FailedRuns != 1 {
		t.Errorf("runs = %d/%d/%d, want 3/2/1", got.TotalRuns, got.SuccessfulRuns, got.FailedRuns)
	}
	if got.LastScanJobID != "scan-3" {
		t.Errorf("LastScanJobID = %q, want scan-3", got.LastScanJobID)
	}
	if got.Status != model.JobStatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if got.LastRunAt == nil {
		t.Error("LastRunAt = nil, want set")
	}

	t.Run("lookup by name", func(t *testing.T) {
		byName, err := store.GetScanConfigByName("media")
		if err != nil {
			t.Fatalf("GetScanConfigByName() error = %v", err)
		}
		if byName == nil || byName.ID != "cfg-1" {
			t.Errorf("GetScanConfigByName() = %v, want cfg-1", byName)
		}
	})
}

func TestSQLiteStore_Providers(t *testing.T) {
	store := testutil.NewTestStore(t)
	p := &model.CloudProvider{
		ID: "prov-1", Name: "offsite", Type: "s3", RemoteName: "offsite",
		Region: "us-east-1", Bucket: "backups",
		EncryptedAccessKey: "enc-access", EncryptedSecretKey: "enc-secret",
		IsActive: true, CreatedAt: baseTime, UpdatedAt: baseTime,
	}
	if err := store.CreateProvider(p); err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}

	got, err := store.GetProviderByName("offsite")
	if err != nil {
		t.Fatalf("GetProviderByName() error = %v", err)
	}
	if got == nil || got.EncryptedAccessKey != "enc-access" {
		t.Errorf("GetProviderByName() = %+v", got)
	}

	if err := store.SoftDeleteProvider("prov-1", baseTime.Add(time.Hour)); err != nil {
		t.Fatalf("SoftDeleteProvider() error = %v", err)
	}
	afterDelete, err := store.GetProviderByName("offsite")
	if err != nil {
		t.Fatalf("GetProviderByName() after delete error = %v", err)
	}
	if afterDelete != nil {
		t.Errorf("GetProviderByName() after delete = %v, want nil", afterDelete)
	}
	providers, err := store.ListProviders()
	if err != nil {
		t.Fatalf("ListProviders() error = %v", err)
	}
	if len(providers) != 0 {
		t.Errorf("ListProviders() = %v, want empty", providers)
	}
}
