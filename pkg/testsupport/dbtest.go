package testsupport

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewSQLiteMemoryDB opens a shared-cache in-memory sqlite database named after
// the given label. Distinct labels never share state.
func NewSQLiteMemoryDB(label string) (*sql.DB, error) {
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(label)
	if name == "" {
		name = "cms_inline"
	}
	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name))
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)
	return sqldb, nil
}

// NewBunDB returns a bun handle over a per-test in-memory sqlite database.
// Both handles are closed on test cleanup.
func NewBunDB(t testing.TB) *bun.DB {
	t.Helper()
	sqldb, err := NewSQLiteMemoryDB(t.Name())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}
