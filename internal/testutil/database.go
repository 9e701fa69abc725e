package testutil

import (
	"testing"

	"chatdock/internal/db"
)

// SetupTestDB creates a migrated in-memory database for testing
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New(&db.Config{DSN: db.MemoryDSN})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := database.Migrate(); err != nil {
		database.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}
