package database

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

// OpenTest connects to a fresh database file under t.TempDir and closes it
// when the test ends.
func OpenTest(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
