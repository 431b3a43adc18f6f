// Package cache provides the in-process caching layer shared by the photo
// browser's image loaders, thumbnail renderers, and metadata producers.
//
// The package has two levels:
//
//   - BoundedCache: a single-namespace LRU cache with per-entry TTL and
//     memory accounting. Both an entry-count budget and a byte budget are
//     enforced after every completed mutation.
//   - Registry: a fixed set of named BoundedCache instances (image,
//     thumbnail, metadata, map) with typed convenience accessors and
//     aggregate statistics.
//
// # Concurrency
//
// Each BoundedCache is guarded by its own mutex; namespaces are fully
// independent and no cross-namespace ordering is guaranteed. All operations
// are in-memory and complete in O(1) amortized time under the lock.
//
// # Ownership
//
// Values are not copied on insertion. Once a value is passed to Put the
// cache owns it: callers must not mutate byte slices (or any other mutable
// value) after insertion, and must treat values returned by Get as
// read-only. This is a documented contract, not something the type system
// enforces for []byte.
//
// # Failure semantics
//
// Get and Put never return errors. A missing or expired entry is a miss, a
// value larger than the namespace byte budget is rejected with ok=false.
// The only panics are programmer errors: addressing a namespace that does
// not exist in the registry.
package cache
