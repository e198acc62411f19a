package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func connect(t *testing.T, path string) *SQLiteDB {
	t.Helper()
	database := NewSQLiteDB(&SQLiteConfig{Path: path})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return database
}

func TestRunMigrations(t *testing.T) {
	database := connect(t, filepath.Join(t.TempDir(), "test.db"))
	defer database.Close()
	db := database.DB()

	objects := []struct {
		kind string
		name string
	}{
		{kind: "table", name: "schema_migrations"},
		{kind: "table", name: "media"},
		{kind: "table", name: "publications"},
		{kind: "index", name: "idx_publications_document"},
	}

	for _, o := range objects {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", o.kind, o.name).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check %s %s: %v", o.kind, o.name, err)
		}
		if count != 1 {
			t.Errorf("%s %s not created", o.kind, o.name)
		}
	}

	var version int
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	database := connect(t, path)
	database.Close()

	database = connect(t, path)
	defer database.Close()

	var count int
	err := database.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("recorded %d migrations, want %d", count, len(migrations))
	}
}

func TestMediaTableSchema(t *testing.T) {
	database := connect(t, filepath.Join(t.TempDir(), "test.db"))
	defer database.Close()
	db := database.DB()

	insert := `INSERT INTO media (weblog, hash, path, url, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := db.Exec(insert, "MyBlog", "abc", "post/a.png", "https://example.com/a.png", time.Now()); err != nil {
		t.Fatalf("Failed to insert media: %v", err)
	}

	// the same content may be uploaded once per weblog
	if _, err := db.Exec(insert, "Other", "abc", "post/a.png", "https://other.example.com/a.png", time.Now()); err != nil {
		t.Fatalf("Failed to insert media for a second weblog: %v", err)
	}
	if _, err := db.Exec(insert, "MyBlog", "abc", "post/b.png", "https://example.com/b.png", time.Now()); err == nil {
		t.Error("Expected primary key violation for duplicate (weblog, hash)")
	}

	var updatedAt sql.NullTime
	if err := db.QueryRow("SELECT updated_at FROM media WHERE weblog = ? AND hash = ?", "MyBlog", "abc").Scan(&updatedAt); err != nil {
		t.Fatalf("Failed to query media: %v", err)
	}
	if updatedAt.Valid {
		t.Error("updated_at should be NULL")
	}
}
