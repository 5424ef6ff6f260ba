package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"backhaul/internal/model"
)

// Catalog entry operations

const catalogEntryColumns = `id, file_path, file_name, extension, file_size, content_hash,
	created_at, modified_at, accessed_at, parent_directory, depth, last_scan_at,
	last_backup_at, backup_count, backup_job_ids, is_active`

func (s *SQLiteStore) InsertCatalogEntry(entry *model.CatalogEntry) error {
	jobIDs, err := toJSON(entry.BackupJobIDs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO catalog_entries (`+catalogEntryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.FilePath, entry.FileName, entry.Extension, entry.FileSize, entry.ContentHash,
		nullTime(entry.CreatedAt), nullTime(entry.ModifiedAt), nullTime(entry.AccessedAt),
		entry.ParentDirectory, entry.Depth, entry.LastScanAt,
		nullTime(entry.LastBackupAt), entry.BackupCount, jobIDs, entry.IsActive)
	if err != nil {
		return fmt.Errorf("inserting catalog entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCatalogEntryByPath(filePath string) (*model.CatalogEntry, error) {
	row := s.db.QueryRow(`SELECT `+catalogEntryColumns+` FROM catalog_entries WHERE file_path = ?`, filePath)
	entry, err := scanCatalogEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding catalog entry: %w", err)
	}
	return entry, nil
}

func (s *SQLiteStore) UpdateCatalogEntry(entry *model.CatalogEntry) error {
	jobIDs, err := toJSON(entry.BackupJobIDs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		UPDATE catalog_entries SET file_name = ?, extension = ?, file_size = ?, content_hash = ?,
			created_at = ?, modified_at = ?, accessed_at = ?, parent_directory = ?, depth = ?,
			last_scan_at = ?, last_backup_at = ?, backup_count = ?, backup_job_ids = ?, is_active = ?
		WHERE id = ?`,
		entry.FileName, entry.Extension, entry.FileSize, entry.ContentHash,
		nullTime(entry.CreatedAt), nullTime(entry.ModifiedAt), nullTime(entry.AccessedAt),
		entry.ParentDirectory, entry.Depth,
		entry.LastScanAt, nullTime(entry.LastBackupAt), entry.BackupCount, jobIDs, entry.IsActive,
		entry.ID)
	if err != nil {
		return fmt.Errorf("updating catalog entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TouchCatalogEntry(id string, lastScanAt time.Time) error {
	_, err := s.db.Exec(`UPDATE catalog_entries SET last_scan_at = ?, is_active = 1 WHERE id = ?`,
		lastScanAt, id)
	if err != nil {
		return fmt.Errorf("touching catalog entry: %w", err)
	}
	return nil
}

func scanCatalogEntry(r rowScanner) (*model.CatalogEntry, error) {
	var entry model.CatalogEntry
	var createdAt, modifiedAt, accessedAt, lastBackupAt sql.NullTime
	var jobIDs string
	if err := r.Scan(&entry.ID, &entry.FilePath, &entry.FileName, &entry.Extension,
		&entry.FileSize, &entry.ContentHash, &createdAt, &modifiedAt, &accessedAt,
		&entry.ParentDirectory, &entry.Depth, &entry.LastScanAt,
		&lastBackupAt, &entry.BackupCount, &jobIDs, &entry.IsActive); err != nil {
		return nil, err
	}
	entry.CreatedAt = timePtr(createdAt)
	entry.ModifiedAt = timePtr(modifiedAt)
	entry.AccessedAt = timePtr(accessedAt)
	entry.LastBackupAt = timePtr(lastBackupAt)
	if err := fromJSON(jobIDs, &entry.BackupJobIDs); err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarkCatalogBackedUp stamps every active entry under sourcePath with
// the backup time, increments its backup count and appends the job id
// to its provenance list. Runs in one transaction so a partial stamp is
// never visible.
func (s *SQLiteStore) MarkCatalogBackedUp(sourcePath, backupJobID string, backupTime time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT id, backup_job_ids FROM catalog_entries
		WHERE is_active = 1 AND (file_path = ? OR file_path LIKE ? ESCAPE '\')`,
		sourcePath, escapeLike(strings.TrimSuffix(sourcePath, "/"))+"/%")
	if err != nil {
		return 0, fmt.Errorf("selecting entries to stamp: %w", err)
	}

	type target struct {
		id     string
		jobIDs []string
	}
	var targets []target
	for rows.Next() {
		var t target
		var raw string
		if err := rows.Scan(&t.id, &raw); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning entry: %w", err)
		}
		if err := fromJSON(raw, &t.jobIDs); err != nil {
			rows.Close()
			return 0, err
		}
		targets = append(targets, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating entries: %w", err)
	}

	var touched int64
	for _, t := range targets {
		if !contains(t.jobIDs, backupJobID) {
			t.jobIDs = append(t.jobIDs, backupJobID)
		}
		jobIDs, err := toJSON(t.jobIDs)
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(`
			UPDATE catalog_entries SET last_backup_at = ?, backup_count = backup_count + 1, backup_job_ids = ?
			WHERE id = ?`, backupTime, jobIDs, t.id); err != nil {
			return 0, fmt.Errorf("stamping entry %s: %w", t.id, err)
		}
		touched++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return touched, nil
}

// escapeLike neutralizes LIKE metacharacters in a literal path so a
// source directory named "50%" or "a_b" cannot match unrelated entries.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// History operations

func (s *SQLiteStore) InsertHistoryEntry(entry *model.HistoryEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO history_entries (id, catalog_entry_id, scan_job_id, file_size, content_hash,
			modified_at, accessed_at, size_changed, hash_changed, modified_changed, accessed_changed,
			size_delta, days_since_access, days_since_modify, scan_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.CatalogEntryID, entry.ScanJobID, entry.FileSize, entry.ContentHash,
		nullTime(entry.ModifiedAt), nullTime(entry.AccessedAt),
		entry.SizeChanged, entry.HashChanged, entry.ModifiedChanged, entry.AccessedChanged,
		entry.SizeDelta, nullInt(entry.DaysSinceAccess), nullInt(entry.DaysSinceModify),
		entry.ScanType, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListHistoryForEntry(catalogEntryID string) ([]*model.HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, catalog_entry_id, scan_job_id, file_size, content_hash, modified_at, accessed_at,
			size_changed, hash_changed, modified_changed, accessed_changed, size_delta,
			days_since_access, days_since_modify, scan_type, created_at
		FROM history_entries WHERE catalog_entry_id = ? ORDER BY created_at`, catalogEntryID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []*model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var modifiedAt, accessedAt sql.NullTime
		var daysAccess, daysModify sql.NullInt64
		if err := rows.Scan(&e.ID, &e.CatalogEntryID, &e.ScanJobID, &e.FileSize, &e.ContentHash,
			&modifiedAt, &accessedAt, &e.SizeChanged, &e.HashChanged, &e.ModifiedChanged,
			&e.AccessedChanged, &e.SizeDelta, &daysAccess, &daysModify, &e.ScanType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.ModifiedAt = timePtr(modifiedAt)
		e.AccessedAt = timePtr(accessedAt)
		e.DaysSinceAccess = intPtr(daysAccess)
		e.DaysSinceModify = intPtr(daysModify)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Directory aggregate operations

func (s *SQLiteStore) UpsertDirectoryAggregate(agg *model.DirectoryAggregate) error {
	fileTypes, err := toJSON(agg.FileTypes)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO directory_aggregates (directory_path, directory_name, depth, total_files,
			direct_files, total_size, subdirectory_count, file_types, last_scan_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(directory_path) DO UPDATE SET
			directory_name = excluded.directory_name,
			depth = excluded.depth,
			total_files = excluded.total_files,
			direct_files = excluded.direct_files,
			total_size = excluded.total_size,
			subdirectory_count = excluded.subdirectory_count,
			file_types = excluded.file_types,
			last_scan_at = excluded.last_scan_at`,
		agg.DirectoryPath, agg.DirectoryName, agg.Depth, agg.TotalFiles,
		agg.DirectFiles, agg.TotalSize, agg.SubdirectoryCount, fileTypes, agg.LastScanAt)
	if err != nil {
		return fmt.Errorf("upserting directory aggregate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDirectoryAggregate(path string) (*model.DirectoryAggregate, error) {
	row := s.db.QueryRow(`
		SELECT directory_path, directory_name, depth, total_files, direct_files, total_size,
			subdirectory_count, file_types, last_scan_at
		FROM directory_aggregates WHERE directory_path = ?`, path)

	var agg model.DirectoryAggregate
	var fileTypes string
	if err := row.Scan(&agg.DirectoryPath, &agg.DirectoryName, &agg.Depth, &agg.TotalFiles,
		&agg.DirectFiles, &agg.TotalSize, &agg.SubdirectoryCount, &fileTypes, &agg.LastScanAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding directory aggregate: %w", err)
	}
	if err := fromJSON(fileTypes, &agg.FileTypes); err != nil {
		return nil, err
	}
	return &agg, nil
}

// Duplicate detection

// FindDuplicateGroups returns groups of active entries sharing a content
// hash, largest wasted space first.
func (s *SQLiteStore) FindDuplicateGroups() ([]*model.DuplicateGroup, error) {
	rows, err := s.db.Query(`
		SELECT content_hash, COUNT(*) AS cnt, MAX(file_size) AS size,
			MAX(file_size) * (COUNT(*) - 1) AS wasted,
			GROUP_CONCAT(file_path, char(10)) AS paths
		FROM catalog_entries
		WHERE is_active = 1
		GROUP BY content_hash
		HAVING COUNT(*) > 1
		ORDER BY size DESC`)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var groups []*model.DuplicateGroup
	for rows.Next() {
		var g model.DuplicateGroup
		var paths string
		if err := rows.Scan(&g.ContentHash, &g.Count, &g.FileSize, &g.WastedSpace, &paths); err != nil {
			return nil, fmt.Errorf("scanning duplicate group: %w", err)
		}
		g.Paths = strings.Split(paths, "\n")
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}
