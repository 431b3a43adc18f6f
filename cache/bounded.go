package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

// NamespaceConfig bounds a single cache namespace.
type NamespaceConfig struct {
	// MaxEntries is the maximum number of entries held at once.
	MaxEntries int
	// MaxMemoryBytes is the maximum total estimated footprint in bytes.
	MaxMemoryBytes int64
	// DefaultTTL is applied to entries inserted via Put. Zero means entries
	// never expire unless PutWithTTL supplies an explicit TTL.
	DefaultTTL time.Duration
}

// BoundedCache is a thread-safe LRU cache with per-entry TTL and memory
// accounting for one logical namespace.
//
// The recency list keeps the least-recently-used entry at the front and the
// most-recently-used at the back. Eviction walks from the front, so entries
// that have not been touched go first; ties on access time resolve to
// insertion order because only an access reorders the list.
type BoundedCache struct {
	mu sync.Mutex

	name    string
	cfg     NamespaceConfig
	entries map[string]*list.Element
	order   *list.List // front = LRU, back = MRU
	memory  int64

	hits      uint64
	misses    uint64
	evictions uint64

	logger *slog.Logger
	now    func() time.Time
}

// NewBoundedCache creates a cache for the given namespace. Non-positive
// budgets fall back to permissive defaults so a zero-value config cannot
// produce a cache that rejects everything.
func NewBoundedCache(name string, cfg NamespaceConfig, logger *slog.Logger) *BoundedCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	if cfg.MaxMemoryBytes <= 0 {
		cfg.MaxMemoryBytes = 64 << 20
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BoundedCache{
		name:    name,
		cfg:     cfg,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		logger:  logger.With("namespace", name),
		now:     time.Now,
	}
}

// Get returns the value for key and whether it was found. A hit moves the
// entry to the most-recently-used position. An entry whose TTL has passed
// is removed, counted as both an eviction and a miss, and never returned.
func (c *BoundedCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	ent := elem.Value.(*Entry)
	now := c.now()
	if ent.Expired(now) {
		c.unlink(elem)
		c.evictions++
		c.misses++
		return nil, false
	}

	ent.LastAccessedAt = now
	ent.AccessCount++
	c.order.MoveToBack(elem)
	c.hits++
	return ent.Value, true
}

// Put inserts or replaces the value for key using the namespace default
// TTL. See PutWithTTL.
func (c *BoundedCache) Put(key string, value any) bool {
	return c.PutWithTTL(key, value, c.cfg.DefaultTTL)
}

// PutWithTTL inserts or replaces the value for key. A zero ttl means the
// entry never expires. The new entry lands at the most-recently-used
// position, then least-recently-used entries are evicted until both the
// entry-count and memory budgets hold again; the entry just inserted is
// never evicted. If the single value exceeds the memory budget the insert
// is rejected with false and the cache is left untouched.
func (c *BoundedCache) PutWithTTL(key string, value any, ttl time.Duration) bool {
	size := EstimateSize(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if size > c.cfg.MaxMemoryBytes {
		c.logger.Debug("value rejected, exceeds namespace budget",
			"key", key, "size_bytes", size, "max_bytes", c.cfg.MaxMemoryBytes)
		return false
	}

	// Replacing an existing key is not an eviction.
	if elem, ok := c.entries[key]; ok {
		c.unlink(elem)
	}

	now := c.now()
	ent := &Entry{
		Key:            key,
		Value:          value,
		SizeBytes:      size,
		InsertedAt:     now,
		LastAccessedAt: now,
	}
	if ttl > 0 {
		ent.ExpiresAt = now.Add(ttl)
	}

	elem := c.order.PushBack(ent)
	c.entries[key] = elem
	c.memory += size

	for len(c.entries) > c.cfg.MaxEntries || c.memory > c.cfg.MaxMemoryBytes {
		front := c.order.Front()
		if front == nil || front == elem {
			break
		}
		evicted := front.Value.(*Entry)
		c.unlink(front)
		c.evictions++
		c.logger.Debug("entry evicted",
			"key", evicted.Key, "size_bytes", evicted.SizeBytes)
	}

	return true
}

// Remove deletes the entry for key and reports whether it was present.
// Removal is not counted as an eviction.
func (c *BoundedCache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.unlink(elem)
	return true
}

// Clear drops all entries and resets the hit, miss, and eviction counters.
func (c *BoundedCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.memory = 0
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// PruneExpired removes every entry whose TTL has passed and returns the
// number removed. Pruned entries count as evictions but do not affect the
// hit or miss counters.
func (c *BoundedCache) PruneExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if ent := elem.Value.(*Entry); ent.Expired(now) {
			c.unlink(elem)
			c.evictions++
			removed++
		}
		elem = next
	}

	if removed > 0 {
		c.logger.Debug("expired entries pruned", "removed", removed)
	}
	return removed
}

// Len returns the current number of entries.
func (c *BoundedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// MemoryBytes returns the summed estimated footprint of all entries.
func (c *BoundedCache) MemoryBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memory
}

// Keys returns all keys ordered least- to most-recently used.
func (c *BoundedCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*Entry).Key)
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *BoundedCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		EntryCount:  len(c.entries),
		MemoryBytes: c.memory,
		HitRate:     hitRate(c.hits, c.misses),
	}
}

// unlink removes an element from the map and recency list and adjusts the
// memory accounting. Callers hold the lock and decide whether the removal
// counts as an eviction.
func (c *BoundedCache) unlink(elem *list.Element) {
	ent := elem.Value.(*Entry)
	c.order.Remove(elem)
	delete(c.entries, ent.Key)
	c.memory -= ent.SizeBytes
}
