// Package storetest opens throwaway SQLite databases for tests.
package storetest

import (
	"path/filepath" // Temp database path
	"testing"       // Test helpers

	"mock_trading/internal/db" // Database connection and migrations

	"github.com/glebarez/sqlite"            // Pure Go SQLite driver for GORM
	"github.com/sirupsen/logrus/hooks/test" // Null logger
	"gorm.io/gorm"                          // GORM ORM library
)

// Open returns a migrated database in a temporary directory. The pool is
// limited to one connection so concurrent writers queue instead of failing
// with SQLITE_BUSY.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	log, _ := test.NewNullLogger()
	gdb, err := db.OpenDialector(sqlite.Open(filepath.Join(t.TempDir(), "trading.db")), log)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
