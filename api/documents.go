package api

import (
	"time"

	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/dfryer1193/weblog/blog/metadata"
)

type DocumentRequest struct {
	Text string `json:"text"`
}

type ApplyRequest struct {
	Text     string                `json:"text"`
	Metadata metadata.PostMetadata `json:"metadata"`
}

type NewDocumentRequest struct {
	Title  string `json:"title"`
	Weblog string `json:"weblog"`
}

type DocumentResponse struct {
	Text       string                `json:"text"`
	Body       string                `json:"body"`
	Metadata   metadata.PostMetadata `json:"metadata"`
	Categories []string              `json:"categories"`
	HasBlock   bool                  `json:"hasBlock"`
}

func NewDocumentResponse(doc metadata.Document) DocumentResponse {
	return DocumentResponse{
		Text:       doc.Raw,
		Body:       doc.Body,
		Metadata:   doc.Metadata,
		Categories: doc.Metadata.CategoryList(),
		HasBlock:   doc.Block.Found(),
	}
}

type PublishRequest struct {
	Path     string `json:"path" binding:"required"`
	Reupload bool   `json:"reupload"`
}

type Publication struct {
	ID           string    `json:"id"`
	DocumentPath string    `json:"documentPath"`
	Weblog       string    `json:"weblog"`
	PostID       int       `json:"postId"`
	Title        string    `json:"title"`
	Created      bool      `json:"created"`
	PublishedAt  time.Time `json:"publishedAt"`
}

func NewPublication(p *domain.Publication) Publication {
	return Publication{
		ID:           p.ID,
		DocumentPath: p.DocumentPath,
		Weblog:       p.Weblog,
		PostID:       p.PostID,
		Title:        p.Title,
		Created:      p.Created,
		PublishedAt:  p.PublishedAt,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}
