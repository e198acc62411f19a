package persistence

import (
	"context"
	"fmt"

	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/dgraph-io/ristretto/v2"
)

var _ domain.MediaRepository = (*CachedMediaRepository)(nil)

// CachedMediaRepository keeps recent upload records in memory in front of another MediaRepository.
type CachedMediaRepository struct {
	next  domain.MediaRepository
	cache *ristretto.Cache[string, domain.UploadedMedia]
}

func NewCachedMediaRepository(next domain.MediaRepository) (*CachedMediaRepository, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, domain.UploadedMedia]{
		NumCounters: 10000,
		MaxCost:     1000, // entries, each costs 1
		BufferItems: 64,

		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fail to initialize media cache: %w", err)
	}

	return &CachedMediaRepository{
		next:  next,
		cache: cache,
	}, nil
}

func mediaKey(weblog, hash string) string {
	return weblog + "\x00" + hash
}

func (r *CachedMediaRepository) SaveMedia(ctx context.Context, m *domain.UploadedMedia) error {
	if err := r.next.SaveMedia(ctx, m); err != nil {
		return err
	}
	r.cache.Set(mediaKey(m.Weblog, m.Hash), *m, 1)
	r.cache.Wait()
	return nil
}

func (r *CachedMediaRepository) GetMedia(ctx context.Context, weblog string, hash string) (*domain.UploadedMedia, error) {
	if m, ok := r.cache.Get(mediaKey(weblog, hash)); ok {
		return &m, nil
	}

	m, err := r.next.GetMedia(ctx, weblog, hash)
	if err != nil {
		return nil, err
	}
	r.cache.Set(mediaKey(weblog, hash), *m, 1)
	return m, nil
}

func (r *CachedMediaRepository) DeleteMedia(ctx context.Context, weblog string, hash string) error {
	r.cache.Del(mediaKey(weblog, hash))
	return r.next.DeleteMedia(ctx, weblog, hash)
}

// Close releases the cache's background goroutines.
func (r *CachedMediaRepository) Close() {
	r.cache.Close()
}
