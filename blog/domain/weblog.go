package domain

import (
	"context"
	"strconv"
	"strings"
)

// Weblog is a registered remote blog endpoint.
type Weblog struct {
	Name               string
	APIURL             string
	BlogID             string
	Username           string
	Password           string
	PreviewURL         string
	SiteURL            string
	PublishImmediately bool
}

// PreviewURLFor substitutes postID into the preview URL template ("{0}" placeholder).
// It returns "" when the weblog has no preview template.
func (w Weblog) PreviewURLFor(postID int) string {
	if w.PreviewURL == "" {
		return ""
	}
	return strings.ReplaceAll(w.PreviewURL, "{0}", strconv.Itoa(postID))
}

// WeblogRepository is the store of registered weblogs, keyed by name.
type WeblogRepository interface {
	GetWeblog(name string) (Weblog, bool)
	WeblogNames() []string
}

// PublishClient talks to a weblog's remote publishing API.
type PublishClient interface {
	CreatePost(ctx context.Context, post *Post, publish bool) (int, error)
	UpdatePost(ctx context.Context, post *Post, publish bool) (bool, error)
	UploadMedia(ctx context.Context, media *MediaObject) (*MediaResult, error)
}
