package pdf

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// ResultCache is a thread-safe LRU of parse results keyed by document digest.
// Re-uploading the same bytes skips decoding and parsing.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*cacheNode
	head     *cacheNode // most recently used
	tail     *cacheNode // least recently used
	hits     int64
	misses   int64
}

type cacheNode struct {
	key   string
	value *ParseResult
	prev  *cacheNode
	next  *cacheNode
}

// CacheStats reports cache usage.
type CacheStats struct {
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
}

// NewResultCache creates a cache holding up to capacity results. A
// capacity below 1 returns nil, which disables caching.
func NewResultCache(capacity int) *ResultCache {
	if capacity < 1 {
		return nil
	}
	c := &ResultCache{
		capacity: capacity,
		items:    make(map[string]*cacheNode),
		head:     &cacheNode{},
		tail:     &cacheNode{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Digest returns the cache key for document bytes.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the result cached under key and marks it recently used.
func (c *ResultCache) Get(key string) (*ParseResult, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.unlink(node)
	c.pushFront(node)
	c.hits++
	return node.value, true
}

// Put stores res under key, evicting the least recently used entry when full.
func (c *ResultCache) Put(key string, res *ParseResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		node.value = res
		c.unlink(node)
		c.pushFront(node)
		return
	}

	node := &cacheNode{key: key, value: res}
	c.pushFront(node)
	c.items[key] = node

	if len(c.items) > c.capacity {
		lru := c.tail.prev
		c.unlink(lru)
		delete(c.items, lru.key)
	}
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns usage counters.
func (c *ResultCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	st := CacheStats{Size: len(c.items), Capacity: c.capacity, Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		st.HitRate = float64(c.hits) / float64(total)
	}
	return st
}

func (c *ResultCache) pushFront(n *cacheNode) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *ResultCache) unlink(n *cacheNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
}
