package pipeline

import (
	"context"
	"sync"

	"github.com/couchcryptid/snow-drift-etl/internal/domain"
	"github.com/couchcryptid/snow-drift-etl/internal/observability"
)

// CachedAnalyzer wraps an Analyzer with an in-memory LRU keyed by the
// request and its resolved parameters. Replayed messages and repeated HTTP
// requests skip the aggregation entirely.
type CachedAnalyzer struct {
	inner   Analyzer
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedAnalyzer creates a cache decorator holding up to maxEntries analyses.
func NewCachedAnalyzer(inner Analyzer, maxEntries int, metrics *observability.Metrics) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest, p domain.Params) (domain.Analysis, error) {
	key := req.Key(p)
	if a, ok := c.cache.get(key); ok {
		c.metrics.AnalysisCache.WithLabelValues("hit").Inc()
		return a, nil
	}
	c.metrics.AnalysisCache.WithLabelValues("miss").Inc()

	a, err := c.inner.Analyze(ctx, req, p)
	if err != nil {
		return a, err
	}
	c.cache.put(key, a)
	return a, nil
}

// Len reports the number of cached analyses.
func (c *CachedAnalyzer) Len() int {
	return c.cache.len()
}

// lruCache is a thread-safe LRU of analyses. Cached values share their
// slices with callers, who must treat them as read-only.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Analysis
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Analysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Analysis{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Analysis) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
