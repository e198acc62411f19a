package domain

import "context"

// DocumentStore gives access to the source text of posts, e.g. files on disk or an editor buffer.
// This allows the publish flow to be decoupled from where documents live.
type DocumentStore interface {
	ReadDocument(ctx context.Context, path string) (string, error)
	WriteDocument(ctx context.Context, path string, text string) error
}
