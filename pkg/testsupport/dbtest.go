// Package testsupport provides shared database fixtures for tests that run
// against a real SQL backend.
package testsupport

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var dbSeq atomic.Uint64

// NewSQLiteMemoryDB opens an in-memory SQLite database. Every call returns an
// isolated database, so parallel tests cannot see each other's tables.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	return sql.Open("sqlite3", dsn)
}

// NewBunSQLiteDB wraps NewSQLiteMemoryDB in bun with a single-connection
// pool. The database is closed when the test finishes.
func NewBunSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()

	sqlDB, err := NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("open sqlite memory db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	return db
}
