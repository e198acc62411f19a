package domain

import (
	"context"
	"time"
)

// MediaObject is a file uploaded to a weblog alongside a post.
type MediaObject struct {
	Name     string
	MimeType string
	Bits     []byte
}

// MediaResult is what the weblog returns for an uploaded MediaObject.
type MediaResult struct {
	URL string
}

// UploadedMedia remembers where a file with a given content hash was uploaded on a weblog
type UploadedMedia struct {
	Weblog    string
	Hash      string
	Path      string
	URL       string
	UpdatedAt time.Time
	CreatedAt time.Time
}

type MediaRepository interface {
	// SaveMedia records an upload, replacing any previous record for the same weblog and hash
	SaveMedia(ctx context.Context, m *UploadedMedia) error

	// GetMedia returns ErrNotFound when the file was never uploaded to the weblog
	GetMedia(ctx context.Context, weblog string, hash string) (*UploadedMedia, error)

	// DeleteMedia forgets an upload so the next publish sends the file again
	DeleteMedia(ctx context.Context, weblog string, hash string) error
}
