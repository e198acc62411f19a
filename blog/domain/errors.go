package domain

import "errors"

var (
	// ErrUnknownWeblog means the document names no weblog, or one that is not registered.
	ErrUnknownWeblog = errors.New("unknown weblog")

	// ErrPublishFailed means the remote create or update call failed.
	ErrPublishFailed = errors.New("publish failed")

	// ErrPublishInProgress means another publish of the same document has not finished yet.
	ErrPublishInProgress = errors.New("publish already in progress for document")

	// ErrDocument means the source document could not be read or written.
	ErrDocument = errors.New("document access failed")

	// ErrRender means the document body could not be rendered to HTML.
	ErrRender = errors.New("render failed")

	// ErrNotFound is returned by repositories for missing records.
	ErrNotFound = errors.New("not found")
)
