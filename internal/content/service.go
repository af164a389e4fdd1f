package content

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/edupegoretti/sitec/internal/store"
)

const postListKey = "_all"

// Fetcher is the upstream the cached service falls back to on a miss.
type Fetcher interface {
	GetPage(ctx context.Context, slug string) (*Page, error)
	GetPost(ctx context.Context, slug string) (*Post, error)
	ListPosts(ctx context.Context) ([]Post, error)
}

// Service serves CMS content through a TTL cache. Cache failures degrade to
// upstream fetches; they never fail a request on their own.
type Service struct {
	fetcher Fetcher
	ttl     time.Duration

	pages    store.Store[Page]
	posts    store.Store[Post]
	postList store.Store[[]Post]

	mu     sync.Mutex
	cached map[string]struct{} // keys currently cached, for full invalidation
}

func NewService(fetcher Fetcher, storage store.Storage, ttl time.Duration) *Service {
	return &Service{
		fetcher:  fetcher,
		ttl:      ttl,
		pages:    store.New[Page](storage, "page:"),
		posts:    store.New[Post](storage, "post:"),
		postList: store.New[[]Post](storage, "posts:"),
		cached:   make(map[string]struct{}),
	}
}

func (s *Service) remember(key string) {
	s.mu.Lock()
	s.cached[key] = struct{}{}
	s.mu.Unlock()
}

func (s *Service) forget(key string) {
	s.mu.Lock()
	delete(s.cached, key)
	s.mu.Unlock()
}

func (s *Service) GetPage(ctx context.Context, slug string) (*Page, error) {
	if page, err := s.pages.Get(ctx, slug); err == nil {
		return &page, nil
	} else if err != store.ErrNotFound {
		slog.Warn("Content cache read failed", "kind", "page", "slug", slug, "error", err)
	}

	page, err := s.fetcher.GetPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.pages.Set(ctx, slug, *page, s.ttl); err != nil {
		slog.Warn("Content cache write failed", "kind", "page", "slug", slug, "error", err)
	} else {
		s.remember("page:" + slug)
	}
	return page, nil
}

func (s *Service) GetPost(ctx context.Context, slug string) (*Post, error) {
	if post, err := s.posts.Get(ctx, slug); err == nil {
		return &post, nil
	} else if err != store.ErrNotFound {
		slog.Warn("Content cache read failed", "kind", "post", "slug", slug, "error", err)
	}

	post, err := s.fetcher.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Set(ctx, slug, *post, s.ttl); err != nil {
		slog.Warn("Content cache write failed", "kind", "post", "slug", slug, "error", err)
	} else {
		s.remember("post:" + slug)
	}
	return post, nil
}

func (s *Service) ListPosts(ctx context.Context) ([]Post, error) {
	if posts, err := s.postList.Get(ctx, postListKey); err == nil {
		return posts, nil
	} else if err != store.ErrNotFound {
		slog.Warn("Content cache read failed", "kind", "postList", "error", err)
	}

	posts, err := s.fetcher.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.postList.Set(ctx, postListKey, posts, s.ttl); err != nil {
		slog.Warn("Content cache write failed", "kind", "postList", "error", err)
	} else {
		s.remember("posts:" + postListKey)
	}
	return posts, nil
}

// Invalidate evicts the given slugs from both the page and post caches, or
// everything cached by this service when no slugs are given. The post list is
// always evicted since any content change can reorder or retitle it.
// The tracked key set is per-process: with a shared redis backend, full
// invalidation only covers keys this replica cached. Slug-targeted
// invalidation hits the shared backend directly and has no such limit; the
// CMS webhook reaches every replica when it names its slugs.
func (s *Service) Invalidate(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, 2*len(slugs)+1)
	if len(slugs) == 0 {
		s.mu.Lock()
		for key := range s.cached {
			keys = append(keys, key)
		}
		s.mu.Unlock()
	} else {
		for _, slug := range slugs {
			keys = append(keys, "page:"+slug, "post:"+slug)
		}
		keys = append(keys, "posts:"+postListKey)
	}

	for _, key := range keys {
		var err error
		if slug, ok := strings.CutPrefix(key, "page:"); ok {
			err = s.pages.Delete(ctx, slug)
		} else if slug, ok := strings.CutPrefix(key, "post:"); ok {
			err = s.posts.Delete(ctx, slug)
		} else {
			err = s.postList.Delete(ctx, postListKey)
		}
		if err != nil && err != store.ErrNotFound {
			slog.Warn("Content cache invalidation failed", "key", key, "error", err)
			continue
		}
		s.forget(key)
	}
}
