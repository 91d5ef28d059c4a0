package schema

import "sync"

// DefaultCacheSize is the capacity of caches created with NewCache(0).
const DefaultCacheSize = 64

// Cache memoizes compiled schemas keyed by their fingerprint, so generators
// validating many records against the same schema parse it only once. A
// schema whose contents change gets a new fingerprint and is compiled afresh.
// Safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	entries  map[uint64]*Compiled
	capacity int
}

// NewCache creates a cache holding at most capacity schemas.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		entries:  make(map[uint64]*Compiled),
		capacity: capacity,
	}
}

// Compile returns the cached compilation of s, compiling it on first use.
// Parse errors are not cached.
func (c *Cache) Compile(s Schema) (*Compiled, error) {
	key := Fingerprint(s)

	c.mu.RLock()
	compiled, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err := Compile(s)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing, nil
	}
	if len(c.entries) >= c.capacity {
		// Evict an arbitrary entry.
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = compiled
	return compiled, nil
}

// Len returns the number of cached schemas.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops every cached schema.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*Compiled)
}
