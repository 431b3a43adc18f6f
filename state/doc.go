// Package state is the single source of truth for the photo browser's
// mutable application state.
//
// A Store holds one ApplicationState snapshot and exposes a validated,
// observable update API. Mutations go through Update, which is atomic at
// the whole-update granularity: a multi-field update either fully applies
// or fully rejects. Successful updates push the previous state onto a
// bounded undo history and notify registered listeners synchronously,
// in registration order, before Update returns.
//
// The Store is safe for concurrent use. Updates are strictly serialized by
// an internal mutex, which also gives listeners a total order over change
// events. Listeners run while that mutex is held: a listener that calls
// back into the same Store deadlocks, so listeners must treat their work as
// fire-and-forget or queue it elsewhere.
//
// Snapshots persist as JSON ({"appState": ..., "saveTimestamp": ...}) with
// RFC 3339 timestamps. Loading a missing file is not an error; loading a
// corrupt one logs and falls back to defaults. Saves are atomic
// (write-to-temp-then-rename) and keep a .backup of the previous snapshot.
package state
