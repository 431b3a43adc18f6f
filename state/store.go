package state

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
)

// Default bounds for the undo history and the memory-usage series.
const (
	DefaultMaxHistory       = 100
	DefaultHistoryRetention = time.Hour
)

// Event describes one applied field change. Events are ephemeral: they are
// delivered to listeners and never persisted.
type Event struct {
	Key       string
	OldValue  any
	NewValue  any
	Timestamp time.Time
}

// ListenerFunc receives change events. Listeners run synchronously under
// the store lock and must not call back into the same Store.
type ListenerFunc func(Event)

type listenerReg struct {
	id int
	fn ListenerFunc
}

// historyEntry is one undo/redo snapshot with the instant it was taken,
// used to age entries out of the retention window.
type historyEntry struct {
	state   ApplicationState
	takenAt time.Time
}

// Store holds the application state and serializes all access to it.
type Store struct {
	mu     sync.Mutex
	state  ApplicationState
	fields map[string]fieldSpec
	themes map[string]struct{}

	undo       []historyEntry
	redo       []historyEntry
	maxHistory int
	retention  time.Duration

	listeners      map[string][]listenerReg
	global         []listenerReg
	nextListenerID int

	dirty     bool
	changeSeq uint64

	fs     core.FS
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store at construction.
type Option func(*Store)

// WithLogger sets the structured logger. Nil keeps the discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFS sets the filesystem used for Save and Load. Defaults to the local
// filesystem.
func WithFS(fsys core.FS) Option {
	return func(s *Store) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// WithThemes sets the theme names accepted by the currentTheme validator.
// "default" is always accepted.
func WithThemes(names ...string) Option {
	return func(s *Store) {
		for _, name := range names {
			s.themes[name] = struct{}{}
		}
	}
}

// WithMaxHistory bounds the undo history. Non-positive values keep the
// default.
func WithMaxHistory(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithHistoryRetention bounds how long history entries and memory samples
// are kept. Non-positive values keep the default.
func WithHistoryRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

// NewStore creates a store holding the default ApplicationState.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state:      NewApplicationState(),
		themes:     make(map[string]struct{}),
		maxHistory: DefaultMaxHistory,
		retention:  DefaultHistoryRetention,
		listeners:  make(map[string][]listenerReg),
		fs:         billy.NewLocal(),
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	s.fields = fieldTable()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a deep copy of the current state.
func (s *Store) Get() ApplicationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// GetValue returns the current value for a field key, or def when the key
// is unknown.
func (s *Store) GetValue(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec, ok := s.fields[key]
	if !ok {
		return def
	}
	return spec.get(&s.state)
}

// Update validates and applies a set of field changes atomically. If any
// field fails validation the whole update is rejected: no field changes,
// no history entry is appended, and no listeners fire. On success the
// previous state is pushed onto the undo history, the redo stack is
// cleared, LastActivity is bumped, and listeners are notified
// synchronously before Update returns.
func (s *Store) Update(fields map[string]any) bool {
	return s.UpdateErr(fields) == nil
}

// UpdateErr is Update with the rejection reason.
func (s *Store) UpdateErr(fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before touching anything.
	keys := make([]string, 0, len(fields))
	for key, value := range fields {
		spec, ok := s.fields[key]
		if !ok {
			return errors.Newf(errors.CodeInvalidInput, "unknown state field %q", key)
		}
		if err := spec.validate(s, value); err != nil {
			s.logger.Debug("update rejected", "key", key, "error", err)
			return err
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := s.now()
	s.pushUndo(now)
	s.redo = s.redo[:0]

	events := make([]Event, 0, len(keys))
	for _, key := range keys {
		spec := s.fields[key]
		old := spec.get(&s.state)
		spec.set(&s.state, fields[key])
		events = append(events, Event{
			Key:       key,
			OldValue:  old,
			NewValue:  spec.get(&s.state),
			Timestamp: now,
		})
	}
	s.state.LastActivity = now
	s.markChanged()

	for _, ev := range events {
		s.notify(ev)
	}
	return nil
}

// AddListener registers a listener for changes to one field key and
// returns a registration id for RemoveListener.
func (s *Store) AddListener(key string, fn ListenerFunc) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextListenerID++
	s.listeners[key] = append(s.listeners[key], listenerReg{id: s.nextListenerID, fn: fn})
	return s.nextListenerID
}

// RemoveListener removes a per-key listener registration.
func (s *Store) RemoveListener(key string, id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	regs := s.listeners[key]
	for i, reg := range regs {
		if reg.id == id {
			s.listeners[key] = append(regs[:i:i], regs[i+1:]...)
			return true
		}
	}
	return false
}

// AddGlobalListener registers a listener for every field change.
func (s *Store) AddGlobalListener(fn ListenerFunc) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextListenerID++
	s.global = append(s.global, listenerReg{id: s.nextListenerID, fn: fn})
	return s.nextListenerID
}

// RemoveGlobalListener removes a global listener registration.
func (s *Store) RemoveGlobalListener(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, reg := range s.global {
		if reg.id == id {
			s.global = append(s.global[:i:i], s.global[i+1:]...)
			return true
		}
	}
	return false
}

// CanUndo reports whether an undo step is available.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether a redo step is available.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Undo restores the most recent history snapshot. It is a no-op returning
// false when the history is empty. Session metadata is never rolled back.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return false
	}

	now := s.now()
	current := s.state.clone()
	entry := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, historyEntry{state: current, takenAt: now})

	s.restore(entry.state)
	s.markChanged()
	return true
}

// Redo reapplies the most recently undone snapshot. It is a no-op
// returning false when nothing has been undone since the last Update.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return false
	}

	now := s.now()
	current := s.state.clone()
	entry := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, historyEntry{state: current, takenAt: now})

	s.restore(entry.state)
	s.markChanged()
	return true
}

// ClearHistory drops both the undo and redo stacks.
func (s *Store) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = nil
	s.redo = nil
}

// ResetState replaces the state with fresh defaults and clears history.
func (s *Store) ResetState() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = NewApplicationState()
	s.undo = nil
	s.redo = nil
	s.markChanged()
}

// RecordMemoryUsage appends a process memory sample and drops samples
// older than the retention window.
func (s *Store) RecordMemoryUsage(mb float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.state.MemoryUsageHistory = append(s.state.MemoryUsageHistory,
		MemorySample{Timestamp: now, MB: mb})
	s.state.MemoryUsageHistory = pruneSamples(s.state.MemoryUsageHistory, now.Add(-s.retention))
	s.markChanged()
}

// SetCacheStatus publishes the latest aggregate cache summary. Telemetry
// is not user-visible state: it bypasses the undo history and fires no
// listeners.
func (s *Store) SetCacheStatus(cs CacheStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CacheStatus = &cs
	s.markChanged()
}

// PruneHistory drops undo/redo entries and memory samples older than the
// retention window. Called periodically by the maintenance worker.
func (s *Store) PruneHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	s.undo = pruneEntries(s.undo, cutoff)
	s.redo = pruneEntries(s.redo, cutoff)
	s.state.MemoryUsageHistory = pruneSamples(s.state.MemoryUsageHistory, cutoff)
}

// Dirty reports whether the state changed since the last successful save.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// pushUndo appends the current state to the undo stack, dropping the
// oldest entry when the stack is at capacity.
func (s *Store) pushUndo(now time.Time) {
	s.undo = append(s.undo, historyEntry{state: s.state.clone(), takenAt: now})
	if len(s.undo) > s.maxHistory {
		s.undo = s.undo[len(s.undo)-s.maxHistory:]
	}
}

// restore replaces the mutable subset of the state while preserving the
// session identity of the current process.
func (s *Store) restore(snapshot ApplicationState) {
	sessionID := s.state.SessionID
	sessionStart := s.state.SessionStart

	s.state = snapshot.clone()
	s.state.SessionID = sessionID
	s.state.SessionStart = sessionStart
	s.state.LastActivity = s.now()
}

// notify delivers one event to per-key listeners then global listeners,
// each in registration order. Callers hold the lock.
func (s *Store) notify(ev Event) {
	for _, reg := range s.listeners[ev.Key] {
		reg.fn(ev)
	}
	for _, reg := range s.global {
		reg.fn(ev)
	}
}

// markChanged flags unsaved changes. Callers hold the lock.
func (s *Store) markChanged() {
	s.dirty = true
	s.changeSeq++
}

func pruneEntries(entries []historyEntry, cutoff time.Time) []historyEntry {
	idx := 0
	for idx < len(entries) && entries[idx].takenAt.Before(cutoff) {
		idx++
	}
	return entries[idx:]
}

func pruneSamples(samples []MemorySample, cutoff time.Time) []MemorySample {
	idx := 0
	for idx < len(samples) && samples[idx].Timestamp.Before(cutoff) {
		idx++
	}
	return samples[idx:]
}
