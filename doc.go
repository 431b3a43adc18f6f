// Package appcore wires the photo browser's data-coherence layer: the
// namespaced caches, the validated application state store, and the
// background maintenance that keeps both healthy.
//
// New builds a System from a Config, loads any persisted state, and
// starts the maintenance workers. Shutdown stops the workers and writes
// a final state snapshot. In between, callers interact with the two
// subsystems directly via Caches and Store.
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return err
//	}
//	sys, err := appcore.New(cfg, appcore.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer sys.Shutdown(context.Background())
//
//	sys.Store().Update(map[string]any{state.KeyThumbnailSize: 200})
//	sys.Caches().PutThumbnail("/photos/a.jpg", 200, 200, pixels)
package appcore
