// Package state holds the process-wide AppState snapshot.
//
// Snapshots are immutable values. A single writer replaces the current
// snapshot with Publish; readers call Snapshot and may wait on Changed for
// the next publish.
package state

import (
	"sync"
	"sync/atomic"

	"github.com/blackwell-systems/rewind/internal/timeline"
)

// AppState is one published view of the app.
type AppState struct {
	PermissionGranted bool
	Loaded            bool
	Timeline          timeline.Timeline
	Err               error
}

// Store publishes AppState snapshots.
type Store struct {
	current atomic.Pointer[AppState]

	mu      sync.Mutex
	changed chan struct{}
}

// NewStore returns a store holding the zero AppState.
func NewStore() *Store {
	s := &Store{changed: make(chan struct{})}
	s.current.Store(&AppState{})
	return s
}

// Snapshot returns the latest published state.
func (s *Store) Snapshot() AppState {
	return *s.current.Load()
}

// Publish replaces the current state and wakes everyone waiting on Changed.
func (s *Store) Publish(st AppState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Store(&st)
	close(s.changed)
	s.changed = make(chan struct{})
}

// Update publishes fn applied to the current snapshot.
func (s *Store) Update(fn func(AppState) AppState) {
	s.Publish(fn(s.Snapshot()))
}

// Changed returns a channel that is closed on the next Publish.
func (s *Store) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}
