package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(maxEntries int, maxMemory int64) *BoundedCache {
	return NewBoundedCache("test", NamespaceConfig{
		MaxEntries:     maxEntries,
		MaxMemoryBytes: maxMemory,
	}, nil)
}

func TestBoundedCache_GetPut(t *testing.T) {
	c := newTestCache(10, 1<<20)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.True(t, c.Put("a", []byte("hello")))
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), v)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.EntryCount)
	assert.Equal(t, int64(5), stats.MemoryBytes)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestBoundedCache_ReplaceDoesNotCountEviction(t *testing.T) {
	c := newTestCache(10, 1<<20)

	require.True(t, c.Put("a", []byte("first")))
	require.True(t, c.Put("a", []byte("second value")))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(len("second value")), c.MemoryBytes())
	assert.Equal(t, uint64(0), c.Stats().Evictions)
}

func TestBoundedCache_EntryBudgetInvariant(t *testing.T) {
	c := newTestCache(3, 1<<20)

	for i := range 20 {
		require.True(t, c.Put(fmt.Sprintf("key-%d", i), []byte("x")))
		stats := c.Stats()
		assert.LessOrEqual(t, stats.EntryCount, 3)
		assert.LessOrEqual(t, stats.MemoryBytes, int64(1<<20))
	}
	assert.Equal(t, uint64(17), c.Stats().Evictions)
}

func TestBoundedCache_MemoryBudgetInvariant(t *testing.T) {
	c := newTestCache(100, 30)

	for i := range 10 {
		require.True(t, c.Put(fmt.Sprintf("key-%d", i), make([]byte, 10)))
		assert.LessOrEqual(t, c.MemoryBytes(), int64(30))
	}
	// 30-byte budget holds three 10-byte values at a time.
	assert.Equal(t, 3, c.Len())
}

func TestBoundedCache_LRUEvictsLeastRecentlyTouched(t *testing.T) {
	c := newTestCache(2, 1<<20)

	require.True(t, c.Put("a", 1))
	require.True(t, c.Put("b", 2))

	// Touch a so b becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	require.True(t, c.Put("c", 3))

	_, ok = c.Get("a")
	assert.True(t, ok, "a was recently touched and must survive")
	_, ok = c.Get("c")
	assert.True(t, ok, "c was just inserted and must survive")
	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently touched and must be evicted")
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestBoundedCache_TieBreakUsesInsertionOrder(t *testing.T) {
	c := newTestCache(2, 1<<20)

	// Freeze the clock so both entries carry identical timestamps.
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	require.True(t, c.Put("first", 1))
	require.True(t, c.Put("second", 2))
	require.True(t, c.Put("third", 3))

	assert.Equal(t, []string{"second", "third"}, c.Keys(),
		"oldest inserted entry evicted first on timestamp tie")
}

func TestBoundedCache_OversizedValueRejected(t *testing.T) {
	c := newTestCache(10, 100)

	require.True(t, c.Put("small", make([]byte, 50)))
	assert.False(t, c.Put("huge", make([]byte, 101)))

	// The rejected put must not have mutated anything.
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(50), c.MemoryBytes())
	assert.Equal(t, uint64(0), c.Stats().Evictions)
	_, ok := c.Get("small")
	assert.True(t, ok)
}

func TestBoundedCache_TTLExpiryCountsAsEvictionAndMiss(t *testing.T) {
	c := newTestCache(10, 1<<20)

	now := time.Now()
	c.now = func() time.Time { return now }
	require.True(t, c.PutWithTTL("a", "value", time.Second))

	// Still valid just before the deadline.
	now = now.Add(900 * time.Millisecond)
	_, ok := c.Get("a")
	require.True(t, ok)

	now = now.Add(200 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.Equal(t, 0, stats.EntryCount)
}

func TestBoundedCache_ZeroTTLNeverExpires(t *testing.T) {
	c := newTestCache(10, 1<<20)

	now := time.Now()
	c.now = func() time.Time { return now }
	require.True(t, c.Put("a", "value"))

	now = now.Add(24 * time.Hour)
	_, ok := c.Get("a")
	assert.True(t, ok)
}

func TestBoundedCache_PruneExpired(t *testing.T) {
	c := newTestCache(10, 1<<20)

	now := time.Now()
	c.now = func() time.Time { return now }

	require.True(t, c.PutWithTTL("short-1", 1, time.Second))
	require.True(t, c.PutWithTTL("short-2", 2, time.Second))
	require.True(t, c.PutWithTTL("long", 3, time.Hour))
	require.True(t, c.Put("forever", 4))

	now = now.Add(2 * time.Second)
	removed := c.PruneExpired()
	assert.Equal(t, 2, removed)

	stats := c.Stats()
	assert.Equal(t, 2, stats.EntryCount)
	assert.Equal(t, uint64(2), stats.Evictions)
	assert.Equal(t, uint64(0), stats.Hits, "pruning must not touch hit counters")
	assert.Equal(t, uint64(0), stats.Misses, "pruning must not touch miss counters")

	assert.Equal(t, 0, c.PruneExpired(), "second prune finds nothing")
}

func TestBoundedCache_Remove(t *testing.T) {
	c := newTestCache(10, 1<<20)

	require.True(t, c.Put("a", "value"))
	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, int64(0), c.MemoryBytes())
	assert.Equal(t, uint64(0), c.Stats().Evictions)
}

func TestBoundedCache_ClearResetsStats(t *testing.T) {
	c := newTestCache(2, 1<<20)

	require.True(t, c.Put("a", 1))
	require.True(t, c.Put("b", 2))
	require.True(t, c.Put("c", 3)) // forces an eviction
	c.Get("a")
	c.Get("c")

	c.Clear()

	stats := c.Stats()
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 0, c.Len())
}

func TestBoundedCache_ScenarioInsertTouchInsert(t *testing.T) {
	// Put(a), Put(b), Get(a), Put(c) on a two-entry cache leaves {a, c}.
	c := newTestCache(2, 1<<20)

	require.True(t, c.Put("a", 1))
	require.True(t, c.Put("b", 2))
	_, ok := c.Get("a")
	require.True(t, ok)
	require.True(t, c.Put("c", 3))

	assert.ElementsMatch(t, []string{"a", "c"}, c.Keys())
}

func TestBoundedCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(100, 1<<20)

	done := make(chan struct{})
	for w := range 8 {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := range 500 {
				key := fmt.Sprintf("key-%d", i%150)
				if i%3 == 0 {
					c.Put(key, w)
				} else {
					c.Get(key)
				}
			}
		}(w)
	}
	for range 8 {
		<-done
	}

	stats := c.Stats()
	assert.LessOrEqual(t, stats.EntryCount, 100)
	assert.LessOrEqual(t, stats.MemoryBytes, int64(1<<20))
}

func TestEstimateSize(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected int64
	}{
		{name: "nil", value: nil, expected: 0},
		{name: "bytes", value: make([]byte, 42), expected: 42},
		{name: "string", value: "hello", expected: 5},
		{name: "int", value: 7, expected: 8},
		{name: "float64", value: 3.14, expected: 8},
		{name: "bool", value: true, expected: 1},
		{name: "byte slices", value: [][]byte{make([]byte, 10), make([]byte, 20)}, expected: 30},
		{name: "strings", value: []string{"ab", "cde"}, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateSize(tt.value))
		})
	}
}

func TestEstimateSize_UnknownTypeFloor(t *testing.T) {
	type record struct{ A, B int }
	assert.GreaterOrEqual(t, EstimateSize(record{1, 2}), int64(1024))
}
