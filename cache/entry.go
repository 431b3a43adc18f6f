package cache

import (
	"fmt"
	"time"
)

// Entry represents a single entry in a BoundedCache.
type Entry struct {
	// Key is the namespace-scoped identifier for this entry.
	Key string
	// Value is the cached value. Owned by the cache once inserted.
	Value any
	// SizeBytes is the estimated footprint used for memory accounting.
	SizeBytes int64
	// InsertedAt is when this entry was inserted or last replaced.
	InsertedAt time.Time
	// LastAccessedAt is when this entry was last returned by Get.
	LastAccessedAt time.Time
	// ExpiresAt is the expiry deadline. Zero means no TTL.
	ExpiresAt time.Time
	// AccessCount tracks how many times this entry has been hit.
	AccessCount int64
}

// Expired reports whether the entry's TTL has passed at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return now.After(e.ExpiresAt)
}

// EstimateSize returns the approximate in-memory footprint of a value in
// bytes. Byte slices and strings are measured exactly; fixed-width scalars
// count their machine size; everything else falls back to the length of its
// formatted representation with a floor of one kilobyte, which is good
// enough for budget accounting of decoded images and metadata records.
func EstimateSize(v any) int64 {
	switch val := v.(type) {
	case nil:
		return 0
	case []byte:
		return int64(len(val))
	case string:
		return int64(len(val))
	case bool, int8, uint8:
		return 1
	case int, int64, uint, uint64, float64, time.Time:
		return 8
	case int32, uint32, float32:
		return 4
	case int16, uint16:
		return 2
	case [][]byte:
		var total int64
		for _, b := range val {
			total += int64(len(b))
		}
		return total
	case []string:
		var total int64
		for _, s := range val {
			total += int64(len(s))
		}
		return total
	default:
		if n := int64(len(fmt.Sprintf("%v", v))); n > defaultSizeEstimate {
			return n
		}
		return defaultSizeEstimate
	}
}

// defaultSizeEstimate is the fallback footprint for values whose size
// cannot be measured directly.
const defaultSizeEstimate = 1024
