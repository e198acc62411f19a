package sqlite

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/dfryer1193/weblog/shared/db"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	defaultPath = "./weblog.db"
	pathEnv     = "WEBLOG_DB_PATH"
)

var _ db.Database = (*SQLiteDB)(nil)

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// NewSQLiteConfig returns a config for path.
// An empty path falls back to $WEBLOG_DB_PATH, then to ./weblog.db.
func NewSQLiteConfig(path string) *SQLiteConfig {
	if path == "" {
		path = os.Getenv(pathEnv)
	}
	if path == "" {
		path = defaultPath
	}

	return &SQLiteConfig{
		Path: path,
	}
}

// SQLiteDB implements the db.Database interface for SQLite
type SQLiteDB struct {
	dbPath string
	db     *sql.DB
}

func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	return &SQLiteDB{
		dbPath: cfg.Path,
	}
}

// Connect opens the database, applies pragmas and runs pending migrations.
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	conn, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000", // concurrent publishes of different documents share the file
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = conn
	log.Debug().Str("path", s.dbPath).Msg("Connected to sqlite database")
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB instance
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}
