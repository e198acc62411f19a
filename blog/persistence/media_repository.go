package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/dfryer1193/weblog/shared/db"
)

var _ domain.MediaRepository = (*SQLiteMediaRepository)(nil)

// SQLiteMediaRepository implements domain.MediaRepository using SQL database (SQLite)
type SQLiteMediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(sqlDB *sql.DB) *SQLiteMediaRepository {
	return &SQLiteMediaRepository{
		db: sqlDB,
	}
}

const upsertMediaQuery = `
	INSERT INTO media (weblog, hash, path, url, updated_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(weblog, hash) DO UPDATE SET
		path = excluded.path,
		url = excluded.url,
		updated_at = excluded.updated_at,
		created_at = COALESCE(media.created_at, excluded.created_at)
`

func (r *SQLiteMediaRepository) SaveMedia(ctx context.Context, m *domain.UploadedMedia) error {
	if m == nil {
		return fmt.Errorf("media cannot be nil")
	}
	if m.Weblog == "" || m.Hash == "" {
		return fmt.Errorf("media weblog and hash cannot be empty")
	}

	var updatedAt any
	if !m.UpdatedAt.IsZero() {
		updatedAt = m.UpdatedAt
	}

	executor := db.GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, upsertMediaQuery,
		m.Weblog,
		m.Hash,
		m.Path,
		m.URL,
		updatedAt,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert media record: %w", err)
	}

	return nil
}

const getMediaQuery = `
	SELECT weblog, hash, path, url, updated_at, created_at
	FROM media
	WHERE weblog = ? AND hash = ?
`

func (r *SQLiteMediaRepository) GetMedia(ctx context.Context, weblog string, hash string) (*domain.UploadedMedia, error) {
	if weblog == "" || hash == "" {
		return nil, fmt.Errorf("media weblog and hash cannot be empty")
	}

	var row mediaRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getMediaQuery, weblog, hash).Scan(
		&row.Weblog,
		&row.Hash,
		&row.Path,
		&row.URL,
		&row.UpdatedAt,
		&row.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("media %s on %s: %w", hash, weblog, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}

	return row.toDomain(), nil
}

const deleteMediaQuery = `
	DELETE FROM media WHERE weblog = ? AND hash = ?
`

func (r *SQLiteMediaRepository) DeleteMedia(ctx context.Context, weblog string, hash string) error {
	if weblog == "" || hash == "" {
		return fmt.Errorf("media weblog and hash cannot be empty")
	}

	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, deleteMediaQuery, weblog, hash)
	if err != nil {
		return fmt.Errorf("failed to delete media record: %w", err)
	}
	return nil
}

// mediaRow is a private struct used to scan database rows
type mediaRow struct {
	Weblog    string
	Hash      string
	Path      string
	URL       string
	UpdatedAt sql.NullTime
	CreatedAt sql.NullTime
}

func (mr *mediaRow) toDomain() *domain.UploadedMedia {
	m := &domain.UploadedMedia{
		Weblog: mr.Weblog,
		Hash:   mr.Hash,
		Path:   mr.Path,
		URL:    mr.URL,
	}

	if mr.UpdatedAt.Valid {
		m.UpdatedAt = mr.UpdatedAt.Time
	}
	if mr.CreatedAt.Valid {
		m.CreatedAt = mr.CreatedAt.Time
	}

	return m
}
