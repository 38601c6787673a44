package ttl

import (
	"sync"
	"time"

	"github.com/bnema/guac-console/internal/domain"
	"github.com/bnema/guac-console/internal/metrics"
	"github.com/bnema/guac-console/internal/ports"
	"github.com/jellydator/ttlcache/v3"
)

const (
	defaultTTL      = 5 * time.Minute
	defaultCapacity = 256
)

// Cache is a namespaced response cache. Each namespace owns its own ttlcache so a
// namespace can be dropped wholesale without touching the others. Every invalidation
// advances the namespace generation; stores carrying an older generation are dropped.
type Cache struct {
	ttl      time.Duration
	capacity uint64
	metrics  *metrics.Metrics

	mu          sync.RWMutex
	namespaces  map[domain.CacheNamespace]*ttlcache.Cache[string, domain.Response]
	generations map[domain.CacheNamespace]uint64
}

var _ ports.ResponseCache = (*Cache)(nil)

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCapacity bounds each namespace; the least recently used entry is evicted first.
func WithCapacity(capacity uint64) Option {
	return func(c *Cache) {
		c.capacity = capacity
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:         defaultTTL,
		capacity:    defaultCapacity,
		namespaces:  make(map[domain.CacheNamespace]*ttlcache.Cache[string, domain.Response]),
		generations: make(map[domain.CacheNamespace]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(namespace domain.CacheNamespace, key string) (domain.Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	store, ok := c.namespaces[namespace]
	if !ok {
		c.observeLookup(namespace, false)
		return domain.Response{}, false
	}

	item := store.Get(key)
	if item == nil {
		c.observeLookup(namespace, false)
		return domain.Response{}, false
	}

	c.observeLookup(namespace, true)
	return item.Value().Clone(), true
}

func (c *Cache) Generation(namespace domain.CacheNamespace) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[namespace]
}

// PutIfGeneration stores value unless namespace was invalidated after generation was read.
func (c *Cache) PutIfGeneration(namespace domain.CacheNamespace, key string, generation uint64, value domain.Response) bool {
	value = value.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[namespace] != generation {
		return false
	}
	c.namespaceLocked(namespace).Set(key, value, ttlcache.DefaultTTL)
	return true
}

func (c *Cache) Invalidate(namespace domain.CacheNamespace, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if store, ok := c.namespaces[namespace]; ok {
		store.Delete(key)
	}
	c.generations[namespace]++
	c.observeInvalidation(namespace)
}

func (c *Cache) InvalidateAll(namespace domain.CacheNamespace) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if store, ok := c.namespaces[namespace]; ok {
		store.DeleteAll()
	}
	c.generations[namespace]++
	c.observeInvalidation(namespace)
}

type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var stats Stats
	for _, store := range c.namespaces {
		m := store.Metrics()
		stats.Hits += m.Hits
		stats.Misses += m.Misses
		stats.Evictions += m.Evictions
		stats.Entries += store.Len()
	}
	return stats
}

func (c *Cache) namespaceLocked(namespace domain.CacheNamespace) *ttlcache.Cache[string, domain.Response] {
	if store, ok := c.namespaces[namespace]; ok {
		return store
	}

	opts := []ttlcache.Option[string, domain.Response]{
		ttlcache.WithTTL[string, domain.Response](c.ttl),
		ttlcache.WithDisableTouchOnHit[string, domain.Response](),
	}
	if c.capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, domain.Response](c.capacity))
	}

	store := ttlcache.New(opts...)
	c.namespaces[namespace] = store
	return store
}

func (c *Cache) observeLookup(namespace domain.CacheNamespace, hit bool) {
	if c.metrics == nil {
		return
	}
	result := metrics.LookupMiss
	if hit {
		result = metrics.LookupHit
	}
	c.metrics.CacheLookupsTotal.WithLabelValues(string(namespace), result).Inc()
}

func (c *Cache) observeInvalidation(namespace domain.CacheNamespace) {
	if c.metrics == nil {
		return
	}
	c.metrics.CacheInvalidationsTotal.WithLabelValues(string(namespace)).Inc()
}
