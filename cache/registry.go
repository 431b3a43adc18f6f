package cache

import (
	"fmt"
	"log/slog"
	"time"
)

// Namespace names. The set is fixed at registry construction; addressing
// any other namespace is a programmer error and panics.
const (
	NamespaceImage     = "image"
	NamespaceThumbnail = "thumbnail"
	NamespaceMetadata  = "metadata"
	NamespaceMap       = "map"
)

// mapTileTTL bounds how long rendered map tiles stay valid. Tiles are
// fetched from an external renderer and can go stale, unlike image bytes
// which are invalidated by their mtime-based keys.
const mapTileTTL = time.Hour

// RegistryConfig carries the per-namespace budgets.
type RegistryConfig struct {
	Image     NamespaceConfig
	Thumbnail NamespaceConfig
	Metadata  NamespaceConfig
	Map       NamespaceConfig
}

// DefaultRegistryConfig returns the stock budgets: generous for raw image
// bytes, tight for metadata records.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Image:     NamespaceConfig{MaxEntries: 500, MaxMemoryBytes: 200 << 20},
		Thumbnail: NamespaceConfig{MaxEntries: 1000, MaxMemoryBytes: 50 << 20},
		Metadata:  NamespaceConfig{MaxEntries: 2000, MaxMemoryBytes: 20 << 20},
		Map:       NamespaceConfig{MaxEntries: 100, MaxMemoryBytes: 30 << 20, DefaultTTL: mapTileTTL},
	}
}

// Registry multiplexes the fixed set of cache namespaces and provides the
// typed accessors the rest of the application uses.
type Registry struct {
	caches map[string]*BoundedCache
	logger *slog.Logger
}

// NewRegistry creates the namespace set from the given budgets.
func NewRegistry(cfg RegistryConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Registry{
		caches: map[string]*BoundedCache{
			NamespaceImage:     NewBoundedCache(NamespaceImage, cfg.Image, logger),
			NamespaceThumbnail: NewBoundedCache(NamespaceThumbnail, cfg.Thumbnail, logger),
			NamespaceMetadata:  NewBoundedCache(NamespaceMetadata, cfg.Metadata, logger),
			NamespaceMap:       NewBoundedCache(NamespaceMap, cfg.Map, logger),
		},
		logger: logger,
	}
	return r
}

// Namespaces returns the namespace names in no particular order.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.caches))
	for name := range r.caches {
		names = append(names, name)
	}
	return names
}

// Namespace returns the BoundedCache backing the named namespace.
func (r *Registry) Namespace(name string) *BoundedCache {
	return r.cache(name)
}

// Get returns the cached value for key in the given namespace.
func (r *Registry) Get(namespace, key string) (any, bool) {
	return r.cache(namespace).Get(key)
}

// Put stores value under key in the given namespace. A zero ttl falls back
// to the namespace default.
func (r *Registry) Put(namespace, key string, value any, ttl time.Duration) bool {
	c := r.cache(namespace)
	if ttl == 0 {
		return c.Put(key, value)
	}
	return c.PutWithTTL(key, value, ttl)
}

// Remove deletes key from the given namespace.
func (r *Registry) Remove(namespace, key string) bool {
	return r.cache(namespace).Remove(key)
}

// Clear drops all entries in the named namespaces, or in every namespace
// when none are given.
func (r *Registry) Clear(namespaces ...string) {
	if len(namespaces) == 0 {
		for _, c := range r.caches {
			c.Clear()
		}
		return
	}
	for _, name := range namespaces {
		r.cache(name).Clear()
	}
}

// PruneExpired removes expired entries from every namespace and returns
// the total number removed.
func (r *Registry) PruneExpired() int {
	total := 0
	for _, c := range r.caches {
		total += c.PruneExpired()
	}
	return total
}

// Stats returns the counters for one namespace.
func (r *Registry) Stats(namespace string) Stats {
	return r.cache(namespace).Stats()
}

// AggregateStats returns per-namespace stats plus totals across all
// namespaces.
func (r *Registry) AggregateStats() AggregateStats {
	agg := AggregateStats{Namespaces: make(map[string]Stats, len(r.caches))}
	for name, c := range r.caches {
		s := c.Stats()
		agg.Namespaces[name] = s
		agg.TotalEntries += s.EntryCount
		agg.TotalMemoryBytes += s.MemoryBytes
		agg.TotalHits += s.Hits
		agg.TotalMisses += s.Misses
		agg.TotalEvictions += s.Evictions
	}
	agg.OverallHitRate = hitRate(agg.TotalHits, agg.TotalMisses)
	return agg
}

// Typed accessors. These pair the deterministic key generation in keys.go
// with the right namespace so call sites cannot mismatch the two.

// PutImage caches the decoded bytes of the image at path.
func (r *Registry) PutImage(path string, data []byte) bool {
	return r.cache(NamespaceImage).Put(ImageKey(path), data)
}

// Image returns the cached bytes for the image at path.
func (r *Registry) Image(path string) ([]byte, bool) {
	v, ok := r.cache(NamespaceImage).Get(ImageKey(path))
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

// PutThumbnail caches a rendered thumbnail for path at the given size.
func (r *Registry) PutThumbnail(path string, width, height int, data []byte) bool {
	return r.cache(NamespaceThumbnail).Put(ThumbnailKey(path, width, height), data)
}

// Thumbnail returns the cached thumbnail for path at the given size.
func (r *Registry) Thumbnail(path string, width, height int) ([]byte, bool) {
	v, ok := r.cache(NamespaceThumbnail).Get(ThumbnailKey(path, width, height))
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

// PutMetadata caches the parsed metadata record for path.
func (r *Registry) PutMetadata(path string, metadata any) bool {
	return r.cache(NamespaceMetadata).Put(MetadataKey(path), metadata)
}

// Metadata returns the cached metadata record for path.
func (r *Registry) Metadata(path string) (any, bool) {
	return r.cache(NamespaceMetadata).Get(MetadataKey(path))
}

// PutMapTile caches a rendered map tile. Tiles expire after the namespace
// TTL (one hour by default).
func (r *Registry) PutMapTile(lat, lon float64, zoom int, data []byte) bool {
	return r.cache(NamespaceMap).Put(MapTileKey(lat, lon, zoom), data)
}

// MapTile returns the cached map tile for the given center and zoom.
func (r *Registry) MapTile(lat, lon float64, zoom int) ([]byte, bool) {
	v, ok := r.cache(NamespaceMap).Get(MapTileKey(lat, lon, zoom))
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

func (r *Registry) cache(namespace string) *BoundedCache {
	c, ok := r.caches[namespace]
	if !ok {
		panic(fmt.Sprintf("cache: unknown namespace %q", namespace))
	}
	return c
}
