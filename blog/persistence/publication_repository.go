package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/dfryer1193/weblog/shared/db"
)

var _ domain.PublicationRepository = (*SQLitePublicationRepository)(nil)

const defaultListLimit = 10

// SQLitePublicationRepository implements domain.PublicationRepository using SQL database (SQLite)
type SQLitePublicationRepository struct {
	db *sql.DB
}

func NewPublicationRepository(sqlDB *sql.DB) *SQLitePublicationRepository {
	return &SQLitePublicationRepository{
		db: sqlDB,
	}
}

const insertPublicationQuery = `
	INSERT INTO publications (id, document_path, weblog, post_id, title, created, published_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (r *SQLitePublicationRepository) SavePublication(ctx context.Context, p *domain.Publication) error {
	if p == nil {
		return fmt.Errorf("publication cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("publication ID cannot be empty")
	}
	if p.PublishedAt.IsZero() {
		return fmt.Errorf("publication time cannot be empty")
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		_, err := executor.ExecContext(txCtx, insertPublicationQuery,
			p.ID,
			p.DocumentPath,
			p.Weblog,
			p.PostID,
			p.Title,
			p.Created,
			p.PublishedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert publication: %w", err)
		}
		return nil
	})
}

const getLatestPublicationQuery = `
	SELECT id, document_path, weblog, post_id, title, created, published_at
	FROM publications
	WHERE document_path = ?
	ORDER BY published_at DESC
	LIMIT 1
`

func (r *SQLitePublicationRepository) GetLatestPublication(ctx context.Context, documentPath string) (*domain.Publication, error) {
	var row publicationRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getLatestPublicationQuery, documentPath).Scan(row.fields()...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("publication of %s: %w", documentPath, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest publication: %w", err)
	}

	return row.toDomain(), nil
}

const listPublicationsQuery = `
	SELECT id, document_path, weblog, post_id, title, created, published_at
	FROM publications
	WHERE (? = '' OR document_path = ?)
	ORDER BY published_at DESC
	LIMIT ? OFFSET ?
`

// ListPublications returns publications newest first.
// An empty documentPath lists publications of every document.
func (r *SQLitePublicationRepository) ListPublications(ctx context.Context, documentPath string, limit, offset int) ([]*domain.Publication, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, listPublicationsQuery, documentPath, documentPath, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	defer rows.Close()

	publications := make([]*domain.Publication, 0)
	for rows.Next() {
		var row publicationRow
		if err := rows.Scan(row.fields()...); err != nil {
			return nil, fmt.Errorf("failed to scan publication row: %w", err)
		}
		publications = append(publications, row.toDomain())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating publication rows: %w", err)
	}

	return publications, nil
}

type publicationRow struct {
	ID           string
	DocumentPath string
	Weblog       string
	PostID       int
	Title        string
	Created      bool
	PublishedAt  sql.NullTime
}

func (pr *publicationRow) fields() []any {
	return []any{
		&pr.ID,
		&pr.DocumentPath,
		&pr.Weblog,
		&pr.PostID,
		&pr.Title,
		&pr.Created,
		&pr.PublishedAt,
	}
}

func (pr *publicationRow) toDomain() *domain.Publication {
	p := &domain.Publication{
		ID:           pr.ID,
		DocumentPath: pr.DocumentPath,
		Weblog:       pr.Weblog,
		PostID:       pr.PostID,
		Title:        pr.Title,
		Created:      pr.Created,
	}
	if pr.PublishedAt.Valid {
		p.PublishedAt = pr.PublishedAt.Time
	}
	return p
}
