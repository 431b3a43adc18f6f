package state

import (
	"time"

	"github.com/google/uuid"
)

// Performance modes trade rendering quality against responsiveness.
const (
	PerformanceModePerformance = "performance"
	PerformanceModeBalanced    = "balanced"
	PerformanceModeQuality     = "quality"
)

// Image sort modes accepted by the browser list view.
const (
	SortModeName = "name"
	SortModeDate = "date"
	SortModeSize = "size"
	SortModeType = "type"
)

// DefaultTheme is always a valid theme name regardless of the configured
// theme set.
const DefaultTheme = "default"

// ApplicationState is the full mutable state of a browser session. It is
// owned exclusively by a Store; callers only ever see copies.
type ApplicationState struct {
	// CurrentFolder is the folder being browsed. Empty means none.
	CurrentFolder string `json:"current_folder,omitempty"`
	// SelectedImage is the image shown in the preview pane. Empty means none.
	SelectedImage string `json:"selected_image,omitempty"`
	// FolderHistory records previously visited folders, most recent last.
	FolderHistory []string `json:"folder_history,omitempty"`

	CurrentTheme    string `json:"current_theme"`
	ThumbnailSize   int    `json:"thumbnail_size"`
	PerformanceMode string `json:"performance_mode"`
	MapZoom         int    `json:"map_zoom"`
	ImageSortMode   string `json:"image_sort_mode"`

	// Session metadata. Never rolled back by undo.
	SessionID    string    `json:"session_id"`
	SessionStart time.Time `json:"session_start"`
	LastActivity time.Time `json:"last_activity"`

	ImagesProcessed int `json:"images_processed"`
	ErrorCount      int `json:"error_count"`

	// MemoryUsageHistory is a bounded series of process memory samples,
	// pruned to the retention window.
	MemoryUsageHistory []MemorySample `json:"memory_usage_history,omitempty"`

	// CacheStatus is the most recent aggregate cache summary, published by
	// the maintenance worker for UI display.
	CacheStatus *CacheStatus `json:"cache_status,omitempty"`
}

// MemorySample is one point of the process memory series.
type MemorySample struct {
	Timestamp time.Time `json:"timestamp"`
	MB        float64   `json:"mb"`
}

// CacheStatus mirrors the cache registry's aggregate statistics at the
// time it was published.
type CacheStatus struct {
	TotalEntries     int       `json:"total_entries"`
	TotalMemoryBytes int64     `json:"total_memory_bytes"`
	OverallHitRate   float64   `json:"overall_hit_rate"`
	Evictions        uint64    `json:"evictions"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewApplicationState returns the default state for a fresh session.
func NewApplicationState() ApplicationState {
	now := time.Now()
	return ApplicationState{
		CurrentTheme:    DefaultTheme,
		ThumbnailSize:   150,
		PerformanceMode: PerformanceModeBalanced,
		MapZoom:         10,
		ImageSortMode:   SortModeName,
		SessionID:       uuid.NewString(),
		SessionStart:    now,
		LastActivity:    now,
	}
}

// clone returns a deep copy. Slices and the cache status pointer are
// duplicated so the copy shares no mutable data with the original.
func (s ApplicationState) clone() ApplicationState {
	dup := s
	if len(s.FolderHistory) > 0 {
		dup.FolderHistory = make([]string, len(s.FolderHistory))
		copy(dup.FolderHistory, s.FolderHistory)
	}
	if len(s.MemoryUsageHistory) > 0 {
		dup.MemoryUsageHistory = make([]MemorySample, len(s.MemoryUsageHistory))
		copy(dup.MemoryUsageHistory, s.MemoryUsageHistory)
	}
	if s.CacheStatus != nil {
		cs := *s.CacheStatus
		dup.CacheStatus = &cs
	}
	return dup
}
