package appcore

import (
	"context"
	"runtime"
	"time"

	"github.com/scottlz0310/photogeoview-core/state"
)

// autoSaveLoop persists the state store at a fixed cadence. Only dirty
// state is written; a failed save is logged and retried on the next
// tick.
func (s *System) autoSaveLoop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.autoSave()
		}
	}
}

func (s *System) autoSave() {
	defer s.recoverPanic("auto-save")

	if !s.store.Dirty() {
		return
	}
	if err := s.store.Save(s.cfg.StatePath); err != nil {
		s.logger.Warn("auto-save failed", "error", err)
		return
	}
	s.logger.Debug("auto-save complete", "path", s.cfg.StatePath)
}

// maintenanceLoop periodically prunes expired cache entries and aged
// history, records a process memory sample, and publishes the aggregate
// cache statistics into the state store.
func (s *System) maintenanceLoop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runMaintenance()
		}
	}
}

func (s *System) runMaintenance() {
	defer s.recoverPanic("maintenance")

	pruned := s.caches.PruneExpired()
	s.store.PruneHistory()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	s.store.RecordMemoryUsage(float64(mem.Alloc) / (1 << 20))

	agg := s.caches.AggregateStats()
	s.store.SetCacheStatus(state.CacheStatus{
		TotalEntries:     agg.TotalEntries,
		TotalMemoryBytes: agg.TotalMemoryBytes,
		OverallHitRate:   agg.OverallHitRate,
		Evictions:        agg.TotalEvictions,
		UpdatedAt:        time.Now(),
	})

	s.logger.Debug("maintenance pass complete",
		"pruned", pruned,
		"cache_entries", agg.TotalEntries,
		"cache_memory_bytes", agg.TotalMemoryBytes)
}

// recoverPanic keeps a bug in one maintenance pass from killing the
// worker goroutine.
func (s *System) recoverPanic(task string) {
	if r := recover(); r != nil {
		s.logger.Error("maintenance task panicked", "task", task, "panic", r)
	}
}
