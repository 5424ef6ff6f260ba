// Package database implements the persistence contracts on SQLite.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"backhaul/internal/backup"
	"backhaul/internal/database/migrations"
	"backhaul/internal/provider"
	"backhaul/internal/scanner"
	"backhaul/internal/schedule"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the persistence contracts of the backup,
// scanner and provider packages on a single SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var (
	_ backup.Store   = (*SQLiteStore)(nil)
	_ scanner.Store  = (*SQLiteStore)(nil)
	_ provider.Store = (*SQLiteStore)(nil)
	_ schedule.Store = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens a new SQLite store. path can be a file path or
// ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the store relies on. Exported for tools and tests that need a
// properly configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite defaults foreign keys to OFF for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Migrate brings the schema to the latest version.
func (s *SQLiteStore) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// nullTime converts an optional time to its SQL representation.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// timePtr converts a SQL nullable time back to an optional time.
func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// toJSON marshals list and map columns for storage as TEXT. A nil
// value marshals to its empty JSON form.
func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding json column: %w", err)
	}
	return string(data), nil
}

// fromJSON unmarshals a TEXT column into v. Empty columns are left as
// the zero value.
func fromJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding json column: %w", err)
	}
	return nil
}

// nullInt converts an optional int for storage.
func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(nv sql.NullInt64) *int {
	if !nv.Valid {
		return nil
	}
	i := int(nv.Int64)
	return &i
}

// nullInt64 converts an optional int64 for storage.
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(nv sql.NullInt64) *int64 {
	if !nv.Valid {
		return nil
	}
	i := nv.Int64
	return &i
}
