package secret

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// CachedStore memoizes successful lookups for ttl and collapses concurrent lookups of the
// same name into one upstream call. Failures are never cached.
type CachedStore struct {
	next  Store
	cache *gocache.Cache
	group singleflight.Group
}

func NewCachedStore(next Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (s *CachedStore) GetSecretString(ctx context.Context, name string) (string, error) {
	if v, ok := s.cache.Get(name); ok {
		return v.(string), nil
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		val, err := s.next.GetSecretString(ctx, name)
		if err != nil {
			return "", err
		}
		s.cache.SetDefault(name, val)
		return val, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops a cached value so the next lookup reaches the upstream store.
func (s *CachedStore) Invalidate(name string) {
	s.cache.Delete(name)
}
