package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"backhaul/internal/model"
)

// catalogFile records one file's current state. Stat and read failures
// are counted and skipped; a store failure aborts the scan. Returns the
// file size, its extension and whether the file was cataloged.
func (s *Scanner) catalogFile(path string, depth int, f *filter, job *model.ScanJob, stats *counters) (int64, string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Debug("skipping unreadable file", "path", path, "error", err)
		stats.addError()
		return 0, "", false, nil
	}
	size := info.Size()
	if !f.acceptSize(size) {
		return 0, "", false, nil
	}

	hash, err := hashFile(path)
	if err != nil {
		s.logger.Debug("skipping unhashable file", "path", path, "error", err)
		stats.addError()
		return 0, "", false, nil
	}

	modified := info.ModTime().UTC()
	created, accessed := fileTimes(info)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	now := s.clock.Now()

	existing, err := s.store.GetCatalogEntryByPath(path)
	if err != nil {
		return 0, "", false, fmt.Errorf("looking up catalog entry for %s: %w", path, err)
	}

	if existing == nil {
		entry := &model.CatalogEntry{
			ID:              s.idgen.New(),
			FilePath:        path,
			FileName:        filepath.Base(path),
			Extension:       ext,
			FileSize:        size,
			ContentHash:     hash,
			CreatedAt:       created,
			ModifiedAt:      &modified,
			AccessedAt:      accessed,
			ParentDirectory: filepath.Dir(path),
			Depth:           depth,
			LastScanAt:      now,
			IsActive:        true,
		}
		if err := s.store.InsertCatalogEntry(entry); err != nil {
			return 0, "", false, fmt.Errorf("inserting catalog entry for %s: %w", path, err)
		}
		history := &model.HistoryEntry{
			ID:             s.idgen.New(),
			CatalogEntryID: entry.ID,
			ScanJobID:      job.ID,
			FileSize:       size,
			ContentHash:    hash,
			ModifiedAt:     &modified,
			AccessedAt:     accessed,
			ScanType:       model.ScanTypeInitial,
			CreatedAt:      now,
		}
		if err := s.store.InsertHistoryEntry(history); err != nil {
			return 0, "", false, fmt.Errorf("inserting history for %s: %w", path, err)
		}
		return size, ext, true, nil
	}

	sizeChanged := existing.FileSize != size
	hashChanged := existing.ContentHash != hash
	modifiedChanged := timesDiffer(existing.ModifiedAt, &modified)
	accessedChanged := timesDiffer(existing.AccessedAt, accessed)

	if !sizeChanged && !hashChanged && !modifiedChanged && !accessedChanged {
		if err := s.store.TouchCatalogEntry(existing.ID, now); err != nil {
			return 0, "", false, fmt.Errorf("touching catalog entry for %s: %w", path, err)
		}
		return size, ext, true, nil
	}

	// Staleness is measured against what was stored before this scan.
	history := &model.HistoryEntry{
		ID:              s.idgen.New(),
		CatalogEntryID:  existing.ID,
		ScanJobID:       job.ID,
		FileSize:        size,
		ContentHash:     hash,
		ModifiedAt:      &modified,
		AccessedAt:      accessed,
		SizeChanged:     sizeChanged,
		HashChanged:     hashChanged,
		ModifiedChanged: modifiedChanged,
		AccessedChanged: accessedChanged,
		SizeDelta:       size - existing.FileSize,
		DaysSinceAccess: daysSince(now, existing.AccessedAt),
		DaysSinceModify: daysSince(now, existing.ModifiedAt),
		ScanType:        job.ScanType,
		CreatedAt:       now,
	}
	if err := s.store.InsertHistoryEntry(history); err != nil {
		return 0, "", false, fmt.Errorf("inserting history for %s: %w", path, err)
	}

	updated := *existing
	updated.FileName = filepath.Base(path)
	updated.Extension = ext
	updated.FileSize = size
	updated.ContentHash = hash
	updated.CreatedAt = created
	updated.ModifiedAt = &modified
	updated.AccessedAt = accessed
	updated.ParentDirectory = filepath.Dir(path)
	updated.Depth = depth
	updated.LastScanAt = now
	updated.IsActive = true
	if err := s.store.UpdateCatalogEntry(&updated); err != nil {
		return 0, "", false, fmt.Errorf("updating catalog entry for %s: %w", path, err)
	}
	return size, ext, true, nil
}

// hashFile computes the SHA-256 digest of a file's content, streamed in
// 8 KiB chunks.
func hashFile(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	h := sha256.New()
	buf := make([]byte, 8192)
	if _, err := io.CopyBuffer(h, fh, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func timesDiffer(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != b
	}
	return !a.Equal(*b)
}

// daysSince returns whole days between now and a prior timestamp, or
// nil when there is no prior value.
func daysSince(now time.Time, prior *time.Time) *int {
	if prior == nil {
		return nil
	}
	days := int(now.Sub(*prior).Hours() / 24)
	return &days
}
