// Package cache is a small TTL key/value store shared by the read paths.
// It is constructed explicitly and handed to whoever needs it; there is no
// package-level instance.
package cache

import (
	"strings"
	"sync"
	"time"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 256
)

// Conventional key prefixes, one per entity type. Invalidate(KeyLoans) drops
// every loan-derived entry.
const (
	KeyLoans        = "loans"
	KeyResources    = "resources"
	KeyReservations = "reservations"
)

type entry struct {
	value     any
	writtenAt time.Time
	ttl       time.Duration
}

type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	capacity int
	now      func() time.Time
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		entries:  make(map[string]entry),
		capacity: capacity,
		now:      time.Now,
	}
}

// Get returns the cached value, or ok=false when the key is absent or its TTL
// has elapsed. Expired entries are evicted lazily on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.writtenAt) > e.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores value under key. When the cache is full the single entry with the
// oldest write timestamp is dropped to make room.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{value: value, writtenAt: c.now(), ttl: ttl}
}

// Invalidate drops every entry whose key starts with prefix. An empty prefix
// clears the whole cache.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prefix == "" {
		c.entries = make(map[string]entry)
		return
	}
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.writtenAt.Before(oldest) {
			oldestKey = k
			oldest = e.writtenAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
