package cache

import (
	"fmt"
	"os"

	"github.com/opencontainers/go-digest"
)

// Key generation for the typed registry accessors. Keys are deterministic:
// two calls describing the same logical resource always collide on the same
// key, which is what callers rely on for deduplication. Image-derived keys
// fold in the file's size and modification time so that an edited file
// naturally misses and gets reloaded.

// ImageKey returns the cache key for a decoded image at path.
func ImageKey(path string) string {
	return "img:" + fingerprint(path)
}

// ThumbnailKey returns the cache key for a thumbnail of the image at path
// rendered at the given pixel dimensions.
func ThumbnailKey(path string, width, height int) string {
	return fmt.Sprintf("thumb:%s:%dx%d", fingerprint(path), width, height)
}

// MetadataKey returns the cache key for the parsed metadata of path.
func MetadataKey(path string) string {
	return "meta:" + fingerprint(path)
}

// MapTileKey returns the cache key for a map tile centered at lat/lon at
// the given zoom level. Coordinates are rounded to four decimal places
// (roughly ten meters) so nearby requests share tiles.
func MapTileKey(lat, lon float64, zoom int) string {
	return fmt.Sprintf("map:%.4f:%.4f:%d", lat, lon, zoom)
}

// fingerprint hashes path together with its current size and mtime. When
// the file cannot be stat'ed the hash covers the path alone, keeping the
// key stable rather than failing.
func fingerprint(path string) string {
	material := path
	if fi, err := os.Stat(path); err == nil {
		material = fmt.Sprintf("%s|%d|%d", path, fi.Size(), fi.ModTime().UnixNano())
	}
	return digest.FromString(material).Encoded()[:32]
}
