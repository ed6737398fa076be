package adapters

import (
	"context"
	"sync"
	"time"

	ports "github.com/Splendor-Protocol/text-prompting/prompting/exchange/ports"
)

// LRUCache implements a simple LRU cache with per-entry TTL support. A TTL of
// zero or less stores the entry without expiry.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*cacheEntry
	head     *cacheEntry
	tail     *cacheEntry
	now      func() time.Time
}

type cacheEntry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero means no expiry
	prev      *cacheEntry
	next      *cacheEntry
}

// NewLRUCache creates a new LRU cache with the specified capacity.
func NewLRUCache(capacity int) *LRUCache {
	return &LRUCache{
		capacity: capacity,
		entries:  make(map[string]*cacheEntry),
		now:      time.Now,
	}
}

// Get retrieves a value from the cache.
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		// Expired, remove from cache
		c.remove(entry)
		delete(c.entries, key)
		return nil, false
	}

	// Most recently used
	c.moveToFront(entry)

	return entry.value, true
}

// Set stores a value in the cache with TTL.
func (c *LRUCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttlSeconds > 0 {
		expiresAt = c.now().Add(time.Duration(ttlSeconds) * time.Second)
	}

	if entry, exists := c.entries[key]; exists {
		// Update existing entry
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return nil
	}

	entry := &cacheEntry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}

	c.addToFront(entry)
	c.entries[key] = entry

	// Evict if over capacity
	if len(c.entries) > c.capacity {
		c.evictLRU()
	}

	return nil
}

// Delete removes a key from the cache.
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil
	}

	c.remove(entry)
	delete(c.entries, key)
	return nil
}

// Len reports the number of live entries.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// moveToFront moves an entry to the front of the LRU list.
func (c *LRUCache) moveToFront(entry *cacheEntry) {
	if entry == c.head {
		return
	}

	c.remove(entry)
	c.addToFront(entry)
}

// addToFront adds an entry to the front of the LRU list.
func (c *LRUCache) addToFront(entry *cacheEntry) {
	entry.next = c.head
	entry.prev = nil

	if c.head != nil {
		c.head.prev = entry
	}
	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

// remove unlinks an entry from the LRU list.
func (c *LRUCache) remove(entry *cacheEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}

	entry.prev = nil
	entry.next = nil
}

// evictLRU removes the least recently used entry.
func (c *LRUCache) evictLRU() {
	if c.tail == nil {
		return
	}

	entry := c.tail
	c.remove(entry)
	delete(c.entries, entry.key)
}

// Ensure LRUCache implements the Cache interface.
var _ ports.Cache = (*LRUCache)(nil)
