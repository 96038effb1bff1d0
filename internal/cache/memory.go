// Package cache provides render cache backends with TTL expiry: an
// in-process LRU bounded by size and a persistent SQLite store.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache caches rendered output with LRU eviction and per-entry TTL
type MemoryCache struct {
	entries     map[string]*entry
	mutex       sync.Mutex
	maxSize     int64
	currentSize int64
	now         func() time.Time
	// LRU implementation
	head *entry
	tail *entry
	// Statistics tracking (atomic for thread safety)
	hits      int64
	misses    int64
	sets      int64
	evictions int64
}

type entry struct {
	key       string
	value     string
	expiresAt time.Time
	size      int64
	// LRU doubly-linked list pointers
	prev *entry
	next *entry
}

// Stats is a snapshot of cache counters
type Stats struct {
	Entries   int
	Size      int64
	MaxSize   int64
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// NewMemoryCache creates a cache holding at most maxSize bytes of keys and
// values. A non-positive maxSize disables the bound.
func NewMemoryCache(maxSize int64) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*entry),
		maxSize: maxSize,
		now:     time.Now,
	}

	// Initialize LRU doubly-linked list with dummy head and tail
	c.head = &entry{}
	c.tail = &entry{}
	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Get retrieves a live value from the cache
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, exists := c.entries[key]
	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return "", false, nil
	}

	if !c.now().Before(e.expiresAt) {
		c.remove(e)
		atomic.AddInt64(&c.misses, 1)
		return "", false, nil
	}

	c.moveToFront(e)
	atomic.AddInt64(&c.hits, 1)
	return e.value, true, nil
}

// Set stores value under key until ttl elapses. Values larger than the
// whole cache are not stored.
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	size := int64(len(key) + len(value))

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, exists := c.entries[key]; exists {
		c.remove(existing)
	}
	if c.maxSize > 0 && size > c.maxSize {
		return nil
	}

	c.evictIfNeeded(size)

	e := &entry{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(ttl),
		size:      size,
	}
	c.entries[key] = e
	c.currentSize += size
	c.addToFront(e)
	atomic.AddInt64(&c.sets, 1)
	return nil
}

// Delete removes key if present
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if e, ok := c.entries[key]; ok {
		c.remove(e)
	}
}

// Clear clears all cache entries and resets statistics
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*entry)
	c.currentSize = 0
	c.head.next = c.tail
	c.tail.prev = c.head

	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.sets, 0)
	atomic.StoreInt64(&c.evictions, 0)
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() Stats {
	c.mutex.Lock()
	count, size := len(c.entries), c.currentSize
	c.mutex.Unlock()

	return Stats{
		Entries:   count,
		Size:      size,
		MaxSize:   c.maxSize,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Sets:      atomic.LoadInt64(&c.sets),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}

// evictIfNeeded evicts entries if cache would exceed max size
func (c *MemoryCache) evictIfNeeded(newSize int64) {
	if c.maxSize <= 0 {
		return
	}
	for c.currentSize+newSize > c.maxSize && c.tail.prev != c.head {
		c.remove(c.tail.prev)
		atomic.AddInt64(&c.evictions, 1)
	}
}

func (c *MemoryCache) remove(e *entry) {
	c.removeFromList(e)
	delete(c.entries, e.key)
	c.currentSize -= e.size
}

// LRU doubly-linked list operations
func (c *MemoryCache) addToFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *MemoryCache) removeFromList(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *MemoryCache) moveToFront(e *entry) {
	c.removeFromList(e)
	c.addToFront(e)
}
