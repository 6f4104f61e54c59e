package service

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/spec-kit/data-collector/internal/domain"
)

// ResultCache memoizes successful searches by normalized filter.
// A nil *ResultCache is a disabled cache.
type ResultCache struct {
	c *gocache.Cache
}

// NewResultCache returns nil when ttl is not positive.
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		return nil
	}
	return &ResultCache{c: gocache.New(ttl, 2*ttl)}
}

func (rc *ResultCache) Get(filter domain.SearchFilter) ([]domain.JobListing, bool) {
	if rc == nil {
		return nil, false
	}
	v, ok := rc.c.Get(filter.CacheKey())
	if !ok {
		return nil, false
	}
	listings, ok := v.([]domain.JobListing)
	if !ok {
		return nil, false
	}
	return append([]domain.JobListing{}, listings...), true
}

func (rc *ResultCache) Set(filter domain.SearchFilter, listings []domain.JobListing) {
	if rc == nil {
		return
	}
	rc.c.SetDefault(filter.CacheKey(), append([]domain.JobListing{}, listings...))
}
