package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

// migrations is applied in order; each version runs at most once per database.
var migrations = []migration{
	{
		version: 1,
		name:    "create_media_table",
		up: `
			CREATE TABLE IF NOT EXISTS media (
				weblog TEXT NOT NULL,
				hash TEXT NOT NULL,
				path TEXT NOT NULL,
				url TEXT NOT NULL,
				updated_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL,
				PRIMARY KEY (weblog, hash)
			);
		`,
	},
	{
		version: 2,
		name:    "create_publications_table",
		up: `
			CREATE TABLE IF NOT EXISTS publications (
				id TEXT PRIMARY KEY,
				document_path TEXT NOT NULL,
				weblog TEXT NOT NULL,
				post_id INTEGER NOT NULL,
				title TEXT NOT NULL,
				created INTEGER NOT NULL DEFAULT 0,
				published_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_publications_document
			ON publications(document_path, published_at DESC);
		`,
	},
}

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if err := applyMigration(db, m); err != nil {
			return err
		}
		log.Info().Int("version", m.version).Str("name", m.name).Msg("Applied migration")
	}

	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
	}

	if _, err := tx.Exec(m.up); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
	}

	_, err = tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}
