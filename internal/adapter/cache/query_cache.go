// Package cache memoizes retrieval results between index changes.
package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"docqa/internal/domain"
	"docqa/internal/port"
)

type cacheKey struct {
	query string
	k     int
}

// newKey normalises surrounding whitespace and case so trivially different
// phrasings of the same question share an entry.
func newKey(query string, k int) cacheKey {
	return cacheKey{query: strings.ToLower(strings.TrimSpace(query)), k: k}
}

type cacheEntry struct {
	key     cacheKey
	results []domain.ScoredChunk
	expires time.Time
}

// QueryCache is an LRU cache of retrieval results with a TTL.
type QueryCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*list.Element
	lru     *list.List // front is most recently used
	maxSize int
	ttl     time.Duration
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[cacheKey]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *QueryCache) Get(query string, k int) ([]domain.ScoredChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[newKey(query, k)]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expires) {
		c.removeElement(el)
		return nil, false
	}

	c.lru.MoveToFront(el)
	return entry.results, true
}

func (c *QueryCache) Put(query string, k int, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := newKey(query, k)
	expires := time.Now().Add(c.ttl)

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.results = results
		entry.expires = expires
		c.lru.MoveToFront(el)
		return
	}

	for c.lru.Len() >= c.maxSize {
		c.removeElement(c.lru.Back())
	}
	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, results: results, expires: expires})
}

// Invalidate empties the cache. Call it whenever the index is replaced or
// removed.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]*list.Element, c.maxSize)
	c.lru.Init()
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *QueryCache) removeElement(el *list.Element) {
	c.lru.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}

var _ port.Retriever = (*CachedRetriever)(nil)

// CachedRetriever wraps a retriever with a QueryCache. Errors are not cached.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if results, hit := r.cache.Get(query, k); hit {
		return results, nil
	}

	results, err := r.retriever.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(query, k, results)
	return results, nil
}
