package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dfryer1193/weblog/blog/domain"
)

// countingMediaRepository wraps a MediaRepository and counts lookups that reach it.
type countingMediaRepository struct {
	domain.MediaRepository
	gets int
}

func (r *countingMediaRepository) GetMedia(ctx context.Context, weblog string, hash string) (*domain.UploadedMedia, error) {
	r.gets++
	return r.MediaRepository.GetMedia(ctx, weblog, hash)
}

func TestCachedMediaRepository(t *testing.T) {
	backing := &countingMediaRepository{MediaRepository: NewMediaRepository(setupTestDB(t))}
	repo, err := NewCachedMediaRepository(backing)
	if err != nil {
		t.Fatalf("NewCachedMediaRepository() error = %v", err)
	}
	defer repo.Close()
	ctx := context.Background()

	m := &domain.UploadedMedia{Weblog: "MyBlog", Hash: "abc", Path: "p/a.png", URL: "https://example.com/a.png", CreatedAt: time.Now()}
	if err := repo.SaveMedia(ctx, m); err != nil {
		t.Fatalf("SaveMedia() error = %v", err)
	}

	got, err := repo.GetMedia(ctx, "MyBlog", "abc")
	if err != nil {
		t.Fatalf("GetMedia() error = %v", err)
	}
	if got.URL != m.URL {
		t.Errorf("URL = %q, want %q", got.URL, m.URL)
	}
	if backing.gets != 0 {
		t.Errorf("backing repository lookups = %d, want 0 after a cached save", backing.gets)
	}

	if err := repo.DeleteMedia(ctx, "MyBlog", "abc"); err != nil {
		t.Fatalf("DeleteMedia() error = %v", err)
	}
	if _, err := repo.GetMedia(ctx, "MyBlog", "abc"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetMedia() after delete error = %v, want %v", err, domain.ErrNotFound)
	}
	if backing.gets != 1 {
		t.Errorf("backing repository lookups = %d, want 1", backing.gets)
	}
}
