package roster

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"roster-search/internal/models"
)

const rosterKey = "roster"

// CachedProvider keeps the last loaded roster for ttl. A zero ttl keeps it
// until Invalidate.
type CachedProvider[T models.Entity] struct {
	inner Provider[T]
	ttl   time.Duration
	cache *cache.Cache

	// one load at a time, so concurrent misses hit the source once
	loadMu sync.Mutex
}

func NewCachedProvider[T models.Entity](inner Provider[T], ttl time.Duration) *CachedProvider[T] {
	expiration := cache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	return &CachedProvider[T]{
		inner: inner,
		ttl:   expiration,
		cache: cache.New(expiration, 10*time.Minute),
	}
}

func (p *CachedProvider[T]) Load(ctx context.Context) ([]T, error) {
	if v, ok := p.cache.Get(rosterKey); ok {
		return v.([]T), nil
	}

	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if v, ok := p.cache.Get(rosterKey); ok {
		return v.([]T), nil
	}

	records, err := p.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	p.cache.Set(rosterKey, records, p.ttl)
	return records, nil
}

// Invalidate drops the cached roster; the next Load reads the source.
func (p *CachedProvider[T]) Invalidate() {
	p.cache.Delete(rosterKey)
}
