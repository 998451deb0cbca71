// Package cache implements the two-tier typed key/value cache from
// spec.md §4.3: an LRU memory tier bounded by a byte budget backed by a
// content-addressed disk tier. The memory tier's bookkeeping is grounded on
// the teacher's internal/cache/cache.go (mutex + map + stats); the byte
// budget and LRU eviction are new, since the teacher's cache only expires
// by TTL. The disk tier is backed by Badger, grounded on the teacher's
// internal/v3/store/badger_store.go usage of an embedded KV for durable
// state.
package cache

import (
	"container/list"
	"sync"

	"github.com/audiocontrol/acrd/internal/metrics"
)

// Stats mirrors spec.md §4.3's required /api/cache/stats payload.
type Stats struct {
	DiskEntries       int   `json:"disk_entries"`
	MemoryEntries     int   `json:"memory_entries"`
	MemoryBytes       int64 `json:"memory_bytes"`
	MemoryLimitBytes  int64 `json:"memory_limit_bytes"`
}

// DiskStore is the persistence contract the memory tier falls back to on a
// miss. Implemented by *BadgerDiskStore in disk.go.
type DiskStore interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Count() (int, error)
	Close() error
}

type memEntry struct {
	key   string
	value []byte
	elem  *list.Element
}

// Cache is the two-tier typed key/value store.
type Cache struct {
	mu sync.Mutex

	limitBytes  int64
	usedBytes   int64
	entries     map[string]*memEntry
	lru         *list.List // front = most recently used

	disk DiskStore
}

// New constructs a Cache with the given memory byte budget (must be
// strictly positive per spec.md §4.3) and an optional disk tier (nil
// disables the disk fallback entirely, useful for tests).
func New(memoryLimitBytes int64, disk DiskStore) *Cache {
	if memoryLimitBytes <= 0 {
		memoryLimitBytes = 1
	}
	return &Cache{
		limitBytes: memoryLimitBytes,
		entries:    make(map[string]*memEntry),
		lru:        list.New(),
		disk:       disk,
	}
}

// Get retrieves a value. A memory hit promotes the entry to
// most-recently-used; a memory miss consults the disk tier and, on a disk
// hit, repopulates memory (subject to eviction), per spec.md §4.3.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.lru.MoveToFront(e.elem)
		value := append([]byte(nil), e.value...)
		c.mu.Unlock()
		metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
		return value, true
	}
	c.mu.Unlock()

	if c.disk == nil {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}

	value, ok, err := c.disk.Get(key)
	if err != nil || !ok {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.WithLabelValues("disk").Inc()
	c.putMemory(key, value)
	return value, true
}

// Put stores a value in both tiers.
func (c *Cache) Put(key string, value []byte) {
	c.putMemory(key, value)
	if c.disk != nil {
		_ = c.disk.Put(key, value)
	}
}

func (c *Cache) putMemory(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.usedBytes -= int64(len(old.value))
		c.lru.Remove(old.elem)
		delete(c.entries, key)
	}

	incoming := int64(len(value))
	if incoming > c.limitBytes {
		// A value larger than the whole budget is not kept in memory; Put
		// still stores it in the disk tier.
		metrics.CacheMemoryBytes.Set(float64(c.usedBytes))
		return
	}
	for c.usedBytes+incoming > c.limitBytes && c.lru.Len() > 0 {
		c.evictOldest()
	}

	e := &memEntry{key: key, value: value}
	e.elem = c.lru.PushFront(e)
	c.entries[key] = e
	c.usedBytes += incoming
	metrics.CacheMemoryBytes.Set(float64(c.usedBytes))
}

func (c *Cache) evictOldest() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	e := back.Value.(*memEntry)
	c.lru.Remove(back)
	delete(c.entries, e.key)
	c.usedBytes -= int64(len(e.value))
	metrics.CacheEvictionsTotal.Inc()
}

// Remove deletes a key from both tiers.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.lru.Remove(e.elem)
		delete(c.entries, key)
		c.usedBytes -= int64(len(e.value))
	}
	c.mu.Unlock()

	if c.disk != nil {
		_ = c.disk.Delete(key)
	}
}

// Stats returns current cache statistics (spec.md §4.3 / §6).
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	stats := Stats{
		MemoryEntries:    len(c.entries),
		MemoryBytes:      c.usedBytes,
		MemoryLimitBytes: c.limitBytes,
	}
	c.mu.Unlock()

	if c.disk != nil {
		if n, err := c.disk.Count(); err == nil {
			stats.DiskEntries = n
		}
	}
	return stats
}
