package testutil

import (
	"testing"

	"backhaul/internal/database"
)

// NewTestStore creates a new in-memory SQLite store with the schema
// migrated. The store is automatically closed when the test completes.
func NewTestStore(t *testing.T) *database.SQLiteStore {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	store := database.NewSQLiteStoreFromDB(sqlDB)
	if err := store.Migrate(); err != nil {
		store.Close()
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
