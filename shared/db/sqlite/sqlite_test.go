package sqlite

import (
	"path/filepath"
	"testing"
)

func TestNewSQLiteConfig(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		envValue string
		want     string
	}{
		{name: "Explicit path", path: "/tmp/explicit.db", envValue: "/tmp/env.db", want: "/tmp/explicit.db"},
		{name: "Env variable", envValue: "/tmp/env.db", want: "/tmp/env.db"},
		{name: "Default path", want: "./weblog.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(pathEnv, tt.envValue)

			cfg := NewSQLiteConfig(tt.path)
			if cfg.Path != tt.want {
				t.Errorf("Path = %q, want %q", cfg.Path, tt.want)
			}
			if database := NewSQLiteDB(cfg); database.dbPath != tt.want {
				t.Errorf("dbPath = %q, want %q", database.dbPath, tt.want)
			}
		})
	}
}

func TestSQLiteDB_Connect(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})

	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	if database.DB() == nil {
		t.Error("DB() returned nil after Connect()")
	}

	if err := database.Connect(); err == nil {
		t.Error("Connect() should return error when already connected")
	}
}

func TestSQLiteDB_Close(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})

	if err := database.Close(); err != nil {
		t.Errorf("Close() without Connect() error = %v", err)
	}

	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := database.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if database.DB() != nil {
		t.Error("DB() should return nil after Close()")
	}
}
