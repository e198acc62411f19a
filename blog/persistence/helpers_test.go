package persistence

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dfryer1193/weblog/shared/db/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err := database.Connect(); err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database.DB()
}
