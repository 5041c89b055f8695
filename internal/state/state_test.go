package state

import (
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/rewind/internal/timeline"
)

func TestNewStore_ZeroState(t *testing.T) {
	s := NewStore()
	st := s.Snapshot()

	if st.PermissionGranted || st.Loaded || st.Err != nil {
		t.Errorf("expected zero state, got %+v", st)
	}
	if len(st.Timeline.Sessions) != 0 {
		t.Errorf("expected empty timeline, got %d sessions", len(st.Timeline.Sessions))
	}
}

func TestPublish_ReplacesWholesale(t *testing.T) {
	s := NewStore()
	s.Publish(AppState{PermissionGranted: true, Loaded: true, Timeline: timeline.Timeline{Total: time.Minute}})
	s.Publish(AppState{PermissionGranted: true})

	st := s.Snapshot()
	if st.Loaded {
		t.Error("Loaded should not survive a wholesale replace")
	}
	if st.Timeline.Total != 0 {
		t.Errorf("Timeline should be replaced, got total %v", st.Timeline.Total)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := NewStore()
	s.Publish(AppState{PermissionGranted: true})

	st := s.Snapshot()
	st.PermissionGranted = false

	if !s.Snapshot().PermissionGranted {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestUpdate(t *testing.T) {
	s := NewStore()
	s.Publish(AppState{PermissionGranted: true})
	s.Update(func(st AppState) AppState {
		st.Loaded = true
		return st
	})

	st := s.Snapshot()
	if !st.PermissionGranted || !st.Loaded {
		t.Errorf("Update should keep other fields, got %+v", st)
	}
}

func TestChanged_WakesReaders(t *testing.T) {
	s := NewStore()

	const readers = 5
	var wg sync.WaitGroup
	seen := make(chan bool, readers)

	for i := 0; i < readers; i++ {
		ch := s.Changed()
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ch:
				seen <- s.Snapshot().Loaded
			case <-time.After(2 * time.Second):
				seen <- false
			}
		}()
	}

	s.Publish(AppState{Loaded: true})
	wg.Wait()
	close(seen)

	for ok := range seen {
		if !ok {
			t.Error("reader did not observe the published state")
		}
	}
}

func TestChanged_NewChannelAfterPublish(t *testing.T) {
	s := NewStore()
	before := s.Changed()
	s.Publish(AppState{})

	select {
	case <-before:
	default:
		t.Fatal("channel obtained before Publish should be closed")
	}

	select {
	case <-s.Changed():
		t.Error("channel obtained after Publish should still be open")
	default:
	}
}
