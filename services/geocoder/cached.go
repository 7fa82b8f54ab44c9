package geocoder

import (
	"context"
	"strings"
	"time"

	"github.com/sahilchouksey/devcamper-api/utils/logger"
)

// Cache is the subset of utils/cache.RedisCache the geocoder needs
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Cached memoizes successful lookups of another Geocoder
type Cached struct {
	inner Geocoder
	cache Cache
	ttl   time.Duration
}

// NewCached wraps inner with a cache. Cache failures fall through to inner.
func NewCached(inner Geocoder, cache Cache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: cache, ttl: ttl}
}

func cacheKey(address string) string {
	return "geocode:" + strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Geocode returns the cached result for address or asks the inner geocoder
func (c *Cached) Geocode(ctx context.Context, address string) (*Result, error) {
	key := cacheKey(address)

	var hit Result
	if err := c.cache.GetJSON(ctx, key, &hit); err == nil {
		return &hit, nil
	}

	res, err := c.inner.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetJSON(ctx, key, res, c.ttl); err != nil {
		logger.Warningf("geocoder: failed to cache %q: %v", address, err)
	}
	return res, nil
}
