// Package repotest opens throwaway in-memory databases for tests.
package repotest

import (
	"testing"

	"gorm.io/gorm"

	"jobportal-crm/internal/core/database"
)

// OpenDB returns a migrated, private in-memory SQLite database. A single
// connection keeps the memory database alive for the life of the test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
