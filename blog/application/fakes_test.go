package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dfryer1193/weblog/blog/domain"
)

var errDocMissing = errors.New("no such document")

type fakeClient struct {
	mu sync.Mutex

	createID   int
	createErr  error
	updateErr  error
	rejectEdit bool
	uploadErr  error

	// createStarted and createRelease let a test hold CreatePost open
	createStarted chan struct{}
	createRelease chan struct{}

	created []*domain.Post
	updated []*domain.Post
	publish []bool
	uploads []*domain.MediaObject
	closed  int
}

func (c *fakeClient) CreatePost(ctx context.Context, post *domain.Post, publish bool) (int, error) {
	if c.createStarted != nil {
		close(c.createStarted)
		<-c.createRelease
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = append(c.created, post)
	c.publish = append(c.publish, publish)
	if c.createErr != nil {
		return 0, c.createErr
	}
	return c.createID, nil
}

func (c *fakeClient) UpdatePost(ctx context.Context, post *domain.Post, publish bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updated = append(c.updated, post)
	c.publish = append(c.publish, publish)
	if c.updateErr != nil {
		return false, c.updateErr
	}
	return !c.rejectEdit, nil
}

func (c *fakeClient) UploadMedia(ctx context.Context, media *domain.MediaObject) (*domain.MediaResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uploadErr != nil {
		return nil, c.uploadErr
	}
	c.uploads = append(c.uploads, media)
	return &domain.MediaResult{URL: "https://cdn.example.com/" + media.Name}, nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

type fakeWeblogs map[string]domain.Weblog

func (w fakeWeblogs) GetWeblog(name string) (domain.Weblog, bool) {
	weblog, ok := w[name]
	return weblog, ok
}

func (w fakeWeblogs) WeblogNames() []string {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	return names
}

// memoryDocs is an in-memory DocumentStore. onRead, when set, runs before the nth read returns.
type memoryDocs struct {
	mu     sync.Mutex
	docs   map[string]string
	reads  int
	writes int
	onRead func(n int, docs map[string]string)
}

func newMemoryDocs(path, text string) *memoryDocs {
	return &memoryDocs{docs: map[string]string{path: text}}
}

func (d *memoryDocs) ReadDocument(ctx context.Context, path string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	if d.onRead != nil {
		d.onRead(d.reads, d.docs)
	}
	text, ok := d.docs[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", errDocMissing, path)
	}
	return text, nil
}

func (d *memoryDocs) WriteDocument(ctx context.Context, path string, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes++
	d.docs[path] = text
	return nil
}

func (d *memoryDocs) get(path string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.docs[path]
}

type memoryMedia struct {
	mu      sync.Mutex
	media   map[string]domain.UploadedMedia
	deletes int
}

func newMemoryMedia() *memoryMedia {
	return &memoryMedia{media: make(map[string]domain.UploadedMedia)}
}

func (m *memoryMedia) SaveMedia(ctx context.Context, media *domain.UploadedMedia) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[media.Weblog+"/"+media.Hash] = *media
	return nil
}

func (m *memoryMedia) GetMedia(ctx context.Context, weblog string, hash string) (*domain.UploadedMedia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	media, ok := m.media[weblog+"/"+hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &media, nil
}

func (m *memoryMedia) DeleteMedia(ctx context.Context, weblog string, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.media, weblog+"/"+hash)
	return nil
}

type memoryHistory struct {
	mu           sync.Mutex
	publications []*domain.Publication
}

func (h *memoryHistory) SavePublication(ctx context.Context, p *domain.Publication) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publications = append(h.publications, p)
	return nil
}

func (h *memoryHistory) GetLatestPublication(ctx context.Context, documentPath string) (*domain.Publication, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.publications) - 1; i >= 0; i-- {
		if h.publications[i].DocumentPath == documentPath {
			return h.publications[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (h *memoryHistory) ListPublications(ctx context.Context, documentPath string, limit, offset int) ([]*domain.Publication, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*domain.Publication, 0)
	for i := len(h.publications) - 1; i >= 0; i-- {
		if documentPath == "" || h.publications[i].DocumentPath == documentPath {
			out = append(out, h.publications[i])
		}
	}
	return out, nil
}
