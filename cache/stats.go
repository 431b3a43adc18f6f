package cache

// Stats is a point-in-time snapshot of one namespace's counters.
type Stats struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`
	EntryCount  int     `json:"entry_count"`
	MemoryBytes int64   `json:"memory_bytes"`
	HitRate     float64 `json:"hit_rate"`
}

// AggregateStats summarizes all namespaces of a Registry. OverallHitRate is
// computed from the summed hits and misses across namespaces, not averaged
// from the per-namespace rates.
type AggregateStats struct {
	Namespaces       map[string]Stats `json:"namespaces"`
	TotalEntries     int              `json:"total_entries"`
	TotalMemoryBytes int64            `json:"total_memory_bytes"`
	TotalHits        uint64           `json:"total_hits"`
	TotalMisses      uint64           `json:"total_misses"`
	TotalEvictions   uint64           `json:"total_evictions"`
	OverallHitRate   float64          `json:"overall_hit_rate"`
}

// hitRate is defined as zero when no accesses have occurred.
func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
