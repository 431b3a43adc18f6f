package state

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/jmgilman/go/errors"
)

// BackupSuffix is appended to the previous snapshot when a new one is
// written.
const BackupSuffix = ".backup"

// persistedState is the on-disk snapshot format. Unknown fields in the
// file are ignored on load for forward compatibility; missing fields keep
// their defaults.
type persistedState struct {
	AppState      ApplicationState `json:"appState"`
	SaveTimestamp time.Time        `json:"saveTimestamp"`
}

// Save writes the current state to path atomically: the document is
// written to a temp file and renamed into place, with the previous
// snapshot kept as a .backup. The snapshot is copied under the lock and
// all I/O happens with the lock released, so concurrent updates never
// block on disk.
func (s *Store) Save(path string) error {
	snapshot, seq := s.snapshotForSave()
	if err := s.writeSnapshot(path, snapshot); err != nil {
		return err
	}
	s.clearDirtyIfUnchanged(seq)
	s.logger.Debug("state saved", "path", path)
	return nil
}

// snapshotForSave copies the current state and the change sequence it was
// taken at, so the dirty flag is only cleared if no update landed while
// the snapshot was on its way to disk.
func (s *Store) snapshotForSave() (ApplicationState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone(), s.changeSeq
}

func (s *Store) writeSnapshot(path string, snapshot ApplicationState) error {
	doc := persistedState{AppState: snapshot, SaveTimestamp: s.now()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode state snapshot")
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, errors.CodeUnknown, "create state directory %q", dir)
		}
	}

	// The temp name must not extend path: some backends implement rename
	// as a prefix move, which would carry the temp file along with the
	// backup rename below.
	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp")
	if err := s.fs.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.CodeUnknown, "write state snapshot %q", tmp)
	}

	if exists, _ := s.fs.Exists(path); exists {
		if err := s.fs.Rename(path, path+BackupSuffix); err != nil {
			return errors.Wrapf(err, errors.CodeUnknown, "back up previous snapshot %q", path)
		}
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, errors.CodeUnknown, "replace state snapshot %q", path)
	}
	return nil
}

func (s *Store) clearDirtyIfUnchanged(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.changeSeq == seq {
		s.dirty = false
	}
}

// Load replaces the current state with the snapshot at path. A missing
// file is not an error: the store keeps its defaults. An unreadable or
// structurally invalid file is logged and also falls back to defaults
// rather than failing startup. Loaded values are sanitized through the field
// validators; values that no longer validate (a folder that was deleted,
// a theme that is no longer installed) revert to their defaults
// individually.
func (s *Store) Load(path string) error {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no state snapshot, using defaults", "path", path)
			return nil
		}
		s.logger.Warn("state snapshot unreadable, using defaults",
			"path", path, "error", err)
		return nil
	}

	var doc persistedState
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("state snapshot is corrupt, using defaults",
			"path", path, "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = s.sanitize(doc.AppState)
	s.undo = nil
	s.redo = nil
	s.dirty = false
	s.logger.Debug("state loaded", "path", path, "saved_at", doc.SaveTimestamp)
	return nil
}

// sanitize merges a loaded snapshot into a fresh default state, keeping
// only the fields that still pass validation. Callers hold the lock.
func (s *Store) sanitize(loaded ApplicationState) ApplicationState {
	st := NewApplicationState()

	for key, spec := range s.fields {
		value := spec.get(&loaded)
		if err := spec.validate(s, value); err != nil {
			s.logger.Warn("dropping invalid persisted field",
				"key", key, "error", err)
			continue
		}
		spec.set(&st, value)
	}

	if !loaded.SessionStart.IsZero() {
		st.SessionStart = loaded.SessionStart
	}
	if !loaded.LastActivity.IsZero() {
		st.LastActivity = loaded.LastActivity
	}
	if loaded.SessionID != "" {
		st.SessionID = loaded.SessionID
	}
	st.MemoryUsageHistory = pruneSamples(loaded.MemoryUsageHistory, s.now().Add(-s.retention))
	if loaded.CacheStatus != nil {
		cs := *loaded.CacheStatus
		st.CacheStatus = &cs
	}
	return st
}
