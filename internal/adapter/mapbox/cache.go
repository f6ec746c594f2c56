package mapbox

import (
	"context"
	"strings"
	"sync"

	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/couchcryptid/ncr-risk-service/internal/observability"
	"github.com/golang/groupcache/lru"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed on the
// normalized location name and region.
type CachedGeocoder struct {
	inner   domain.Geocoder
	metrics *observability.Metrics

	mu    sync.Mutex // lru.Cache is not safe for concurrent use
	cache *lru.Cache
}

// NewCachedGeocoder creates a cache decorator holding at most maxEntries
// results.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		metrics: metrics,
		cache:   lru.New(maxEntries),
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, region string) (domain.GeocodingResult, error) {
	key := domain.NormalizeKey(name) + "|" + strings.ToLower(strings.TrimSpace(region))
	if result, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, name, region)
	if err != nil {
		return result, err
	}
	// Empty results are not cached so a later lookup can retry.
	if result.Found() {
		c.put(key, result)
	}
	return result, nil
}

// Len returns the number of cached results.
func (c *CachedGeocoder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

func (c *CachedGeocoder) get(key string) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.cache.Get(key)
	if !ok {
		return domain.GeocodingResult{}, false
	}
	return v.(domain.GeocodingResult), true
}

func (c *CachedGeocoder) put(key string, result domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, result)
}
