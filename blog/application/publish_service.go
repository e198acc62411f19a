package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/dfryer1193/weblog/blog/metadata"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const untitledPost = "Untitled Post"

// PublishState is the progress of a single publish run.
type PublishState int

const (
	StateIdle PublishState = iota
	StateMetadataResolved
	StateBlogResolved
	StateMediaUploaded
	StatePublished
	StateFailed
)

func (s PublishState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMetadataResolved:
		return "metadata resolved"
	case StateBlogResolved:
		return "blog resolved"
	case StateMediaUploaded:
		return "media uploaded"
	case StatePublished:
		return "published"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("PublishState(%d)", int(s))
	}
}

// PublishError reports where a publish run stopped.
// errors.Is matches both the Kind sentinel and the underlying cause.
type PublishError struct {
	// Stage is the last state the run reached before failing.
	Stage PublishState
	Kind  error
	Err   error
}

func (e *PublishError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("publish stopped after %s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("publish stopped after %s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *PublishError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// PublishOptions tunes a single publish run.
type PublishOptions struct {
	// Reupload sends every local image again instead of reusing recorded uploads.
	Reupload bool `json:"reupload"`
}

// ClientFactory connects to a weblog's publishing API.
type ClientFactory func(weblog domain.Weblog) (domain.PublishClient, error)

// PublishResult describes a finished publish run.
type PublishResult struct {
	RunID           string       `json:"runId"`
	DocumentPath    string       `json:"documentPath"`
	Weblog          string       `json:"weblog"`
	Title           string       `json:"title"`
	PostID          int          `json:"postId"`
	Created         bool         `json:"created"`
	DocumentUpdated bool         `json:"documentUpdated"`
	PreviewURL      string       `json:"previewUrl,omitempty"`
	Media           MediaReport  `json:"media"`
	State           PublishState `json:"-"`
}

// RenderedDocument is a document's metadata together with its body as HTML.
type RenderedDocument struct {
	Metadata metadata.PostMetadata `json:"metadata"`
	Snippet  string                `json:"snippet"`
	HTML     string                `json:"html"`
}

type PublishService struct {
	weblogs   domain.WeblogRepository
	docs      domain.DocumentStore
	markdown  MarkdownRenderer
	uploader  *MediaUploader
	history   domain.PublicationRepository
	newClient ClientFactory
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewPublishService wires the publish flow. history may be nil to skip recording publications.
func NewPublishService(
	weblogs domain.WeblogRepository,
	docs domain.DocumentStore,
	markdown MarkdownRenderer,
	uploader *MediaUploader,
	history domain.PublicationRepository,
	newClient ClientFactory,
) *PublishService {
	return &PublishService{
		weblogs:   weblogs,
		docs:      docs,
		markdown:  markdown,
		uploader:  uploader,
		history:   history,
		newClient: newClient,
		now:       time.Now,
		inFlight:  make(map[string]struct{}),
	}
}

// Publish sends the document at documentPath to the weblog named in its configuration block.
//
// A new post gets its remote id written back into the document. When that write-back fails the
// post already exists remotely, so the result is returned together with the error.
func (s *PublishService) Publish(ctx context.Context, documentPath string, opts PublishOptions) (*PublishResult, error) {
	path := documentKey(documentPath)
	if !s.acquire(path) {
		return nil, &PublishError{Stage: StateIdle, Kind: domain.ErrPublishInProgress, Err: fmt.Errorf("document %s", path)}
	}
	defer s.release(path)

	run := &publishRun{
		service: s,
		id:      uuid.NewString(),
		path:    path,
		opts:    opts,
		state:   StateIdle,
	}
	return run.execute(ctx)
}

// documentKey is the absolute form of path, so the same file reached through
// different relative paths shares one lock and one history.
func documentKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func (s *PublishService) acquire(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[path]; busy {
		return false
	}
	s.inFlight[path] = struct{}{}
	return true
}

func (s *PublishService) release(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, path)
}

// Weblogs returns the names of all registered weblogs, sorted.
func (s *PublishService) Weblogs() []string {
	names := s.weblogs.WeblogNames()
	sort.Strings(names)
	return names
}

// History lists recorded publications, newest first. An empty documentPath lists all documents.
func (s *PublishService) History(ctx context.Context, documentPath string, limit, offset int) ([]*domain.Publication, error) {
	if s.history == nil {
		return []*domain.Publication{}, nil
	}
	if documentPath != "" {
		documentPath = documentKey(documentPath)
	}

	publications, err := s.history.ListPublications(ctx, documentPath, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	return publications, nil
}

// LastPublication returns the most recent publication of a document.
// It reports domain.ErrNotFound when the document was never published.
func (s *PublishService) LastPublication(ctx context.Context, documentPath string) (*domain.Publication, error) {
	if s.history == nil {
		return nil, fmt.Errorf("publication of %s: %w", documentPath, domain.ErrNotFound)
	}

	p, err := s.history.GetLatestPublication(ctx, documentKey(documentPath))
	if err != nil {
		return nil, fmt.Errorf("failed to get last publication: %w", err)
	}
	return p, nil
}

// RenderDocument renders a document's body the way Publish would, without uploading anything.
func (s *PublishService) RenderDocument(text string) (*RenderedDocument, error) {
	doc := metadata.Parse(text)

	var siteURL string
	if weblog, ok := s.weblogs.GetWeblog(doc.Metadata.WeblogName); ok {
		siteURL = weblog.SiteURL
	}

	rendered, err := s.markdown.Render([]byte(doc.Body), siteURL)
	if err != nil {
		return nil, err
	}

	return &RenderedDocument{
		Metadata: doc.Metadata,
		Snippet:  rendered.Snippet,
		HTML:     string(rendered.HTML),
	}, nil
}

// publishRun carries the state of one Publish call.
type publishRun struct {
	service *PublishService
	id      string
	path    string
	opts    PublishOptions
	state   PublishState

	doc    metadata.Document
	weblog domain.Weblog
	client domain.PublishClient
	post   *domain.Post
	media  MediaReport
}

func (r *publishRun) execute(ctx context.Context) (*PublishResult, error) {
	defer r.closeClient()

	steps := []func(ctx context.Context) error{
		r.resolveMetadata,
		r.resolveWeblog,
		r.prepareBody,
		r.send,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}

	created := r.doc.Metadata.IsNew()
	result := &PublishResult{
		RunID:        r.id,
		DocumentPath: r.path,
		Weblog:       r.weblog.Name,
		Title:        r.post.Title,
		PostID:       r.post.PostID,
		Created:      created,
		PreviewURL:   r.weblog.PreviewURLFor(r.post.PostID),
		Media:        r.media,
		State:        r.state,
	}

	r.record(ctx, created)

	if created {
		updated, err := r.writeBackPostID(ctx)
		result.DocumentUpdated = updated
		if err != nil {
			log.Error().Err(err).Str("run", r.id).Str("path", r.path).Int("postId", r.post.PostID).Msg("Failed to write post id back to document")
			return result, &PublishError{Stage: StatePublished, Kind: domain.ErrDocument, Err: err}
		}
	}

	log.Info().Str("run", r.id).Str("path", r.path).Str("weblog", r.weblog.Name).Int("postId", r.post.PostID).Bool("created", created).Msg("Published post")
	return result, nil
}

func (r *publishRun) closeClient() {
	closer, ok := r.client.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.Warn().Err(err).Str("run", r.id).Msg("Failed to close weblog client")
	}
}

func (r *publishRun) advance(state PublishState) {
	log.Debug().Str("run", r.id).Str("path", r.path).Stringer("from", r.state).Stringer("to", state).Msg("Publish state changed")
	r.state = state
}

func (r *publishRun) fail(kind error, err error) error {
	stage := r.state
	r.state = StateFailed
	log.Error().Err(err).Str("run", r.id).Str("path", r.path).Stringer("stage", stage).Msg("Publish failed")
	return &PublishError{Stage: stage, Kind: kind, Err: err}
}

func (r *publishRun) resolveMetadata(ctx context.Context) error {
	text, err := r.service.docs.ReadDocument(ctx, r.path)
	if err != nil {
		return r.fail(domain.ErrDocument, err)
	}

	r.doc = metadata.Parse(text)
	r.advance(StateMetadataResolved)
	return nil
}

func (r *publishRun) resolveWeblog(_ context.Context) error {
	name := r.doc.Metadata.WeblogName
	if name == "" {
		return r.fail(domain.ErrUnknownWeblog, errors.New("document does not name a weblog"))
	}

	weblog, ok := r.service.weblogs.GetWeblog(name)
	if !ok {
		return r.fail(domain.ErrUnknownWeblog, fmt.Errorf("weblog %q is not registered", name))
	}

	client, err := r.service.newClient(weblog)
	if err != nil {
		return r.fail(domain.ErrPublishFailed, fmt.Errorf("failed to create client for weblog %q: %w", name, err))
	}

	r.weblog = weblog
	r.client = client
	r.advance(StateBlogResolved)
	return nil
}

func (r *publishRun) prepareBody(ctx context.Context) error {
	rendered, err := r.service.markdown.Render([]byte(r.doc.Body), r.weblog.SiteURL)
	if err != nil {
		return r.fail(domain.ErrRender, err)
	}

	body, report, err := r.service.uploader.UploadImages(ctx, rendered.HTML, r.path, r.weblog, r.client, r.opts.Reupload)
	if err != nil {
		kind := domain.ErrPublishFailed
		if errors.Is(err, domain.ErrRender) {
			kind = domain.ErrRender
		}
		return r.fail(kind, err)
	}
	r.media = report

	meta := r.doc.Metadata
	title := meta.Title
	if title == "" {
		title = untitledPost
	}
	excerpt := meta.Abstract
	if excerpt == "" {
		excerpt = rendered.Snippet
	}

	r.post = &domain.Post{
		PostID:      meta.PostID,
		Title:       title,
		Body:        string(body),
		Categories:  meta.CategoryList(),
		Excerpt:     excerpt,
		Keywords:    meta.Keywords,
		DateCreated: r.service.now(),
	}
	r.advance(StateMediaUploaded)
	return nil
}

func (r *publishRun) send(ctx context.Context) error {
	publish := r.weblog.PublishImmediately

	if !r.doc.Metadata.IsNew() {
		ok, err := r.client.UpdatePost(ctx, r.post, publish)
		if err != nil {
			return r.fail(domain.ErrPublishFailed, err)
		}
		if !ok {
			return r.fail(domain.ErrPublishFailed, fmt.Errorf("weblog rejected update of post %d", r.post.PostID))
		}
		r.advance(StatePublished)
		return nil
	}

	id, err := r.client.CreatePost(ctx, r.post, publish)
	if err != nil {
		return r.fail(domain.ErrPublishFailed, err)
	}
	if id <= 0 {
		return r.fail(domain.ErrPublishFailed, fmt.Errorf("weblog returned invalid post id %d", id))
	}

	r.post.PostID = id
	r.advance(StatePublished)
	return nil
}

// writeBackPostID records the new post id in the document as it is now, which may differ from
// what was read at the start of the run.
func (r *publishRun) writeBackPostID(ctx context.Context) (bool, error) {
	current, err := r.service.docs.ReadDocument(ctx, r.path)
	if err != nil {
		return false, err
	}

	updated, changed, err := metadata.InjectPostID(current, r.post.PostID)
	if err != nil || !changed {
		return false, err
	}

	if err := r.service.docs.WriteDocument(ctx, r.path, updated); err != nil {
		return false, err
	}
	return true, nil
}

func (r *publishRun) record(ctx context.Context, created bool) {
	if r.service.history == nil {
		return
	}

	p := &domain.Publication{
		ID:           r.id,
		DocumentPath: r.path,
		Weblog:       r.weblog.Name,
		PostID:       r.post.PostID,
		Title:        r.post.Title,
		Created:      created,
		PublishedAt:  r.service.now().UTC(),
	}
	if err := r.service.history.SavePublication(ctx, p); err != nil {
		log.Error().Err(err).Str("run", r.id).Str("path", r.path).Msg("Failed to record publication")
	}
}
