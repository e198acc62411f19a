package domain

import (
	"context"
	"time"
)

// Post represents a blog post as it is sent to a weblog.
// A post is built fresh for every publish attempt from a document's metadata and its rendered body.
type Post struct {
	PostID      int
	Title       string
	Body        string
	Categories  []string
	Excerpt     string
	Keywords    string
	DateCreated time.Time
}

// Publication records one successful publish of a document to a weblog.
type Publication struct {
	ID           string
	DocumentPath string
	Weblog       string
	PostID       int
	Title        string
	Created      bool
	PublishedAt  time.Time
}

type PublicationRepository interface {
	SavePublication(ctx context.Context, p *Publication) error
	GetLatestPublication(ctx context.Context, documentPath string) (*Publication, error)
	ListPublications(ctx context.Context, documentPath string, limit int, offset int) ([]*Publication, error)
}
