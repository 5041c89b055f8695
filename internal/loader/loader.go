// Package loader runs the single background load of an invocation: build the
// app directory, query the day's usage events, reduce them to a timeline and
// publish the result once.
package loader

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/rewind/internal/permission"
	"github.com/blackwell-systems/rewind/internal/state"
	"github.com/blackwell-systems/rewind/internal/timeline"
)

// DirectoryBuilder produces an installed-app directory snapshot.
type DirectoryBuilder interface {
	Build(ctx context.Context) (timeline.Directory, error)
}

// DirectoryFunc adapts a function to DirectoryBuilder.
type DirectoryFunc func(ctx context.Context) (timeline.Directory, error)

// Build calls f.
func (f DirectoryFunc) Build(ctx context.Context) (timeline.Directory, error) {
	return f(ctx)
}

// EventIterator is an open, ordered stream of raw events.
type EventIterator interface {
	All() iter.Seq[timeline.RawEvent]
	Err() error
	Close() error
}

// EventSource queries raw events recorded in [start, end].
type EventSource interface {
	QueryEvents(ctx context.Context, start, end time.Time) (EventIterator, error)
}

// EventSourceFunc adapts a function to EventSource.
type EventSourceFunc func(ctx context.Context, start, end time.Time) (EventIterator, error)

// QueryEvents calls f.
func (f EventSourceFunc) QueryEvents(ctx context.Context, start, end time.Time) (EventIterator, error) {
	return f(ctx, start, end)
}

// Loader wires the collaborators of a timeline load.
type Loader struct {
	gate    permission.Gate
	dir     DirectoryBuilder
	events  EventSource
	state   *state.Store
	reducer *timeline.Reducer
	logger  zerolog.Logger
}

// New creates a Loader that publishes into st.
func New(gate permission.Gate, dir DirectoryBuilder, events EventSource, st *state.Store, logger zerolog.Logger) *Loader {
	return &Loader{
		gate:    gate,
		dir:     dir,
		events:  events,
		state:   st,
		reducer: timeline.NewReducer(logger),
		logger:  logger.With().Str("component", "loader").Logger(),
	}
}

// CheckPermission queries the gate and publishes the result.
func (l *Loader) CheckPermission(ctx context.Context) (bool, error) {
	granted, err := l.gate.Granted(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check usage access: %w", err)
	}
	l.state.Update(func(st state.AppState) state.AppState {
		st.PermissionGranted = granted
		return st
	})
	return granted, nil
}

// Start launches the load for day in the background when the last
// published state has permission. The returned channel is closed once the
// result is published, or immediately when there is nothing to do.
func (l *Loader) Start(ctx context.Context, day time.Time) <-chan struct{} {
	done := make(chan struct{})

	if !l.state.Snapshot().PermissionGranted {
		close(done)
		return done
	}

	go func() {
		defer close(done)

		tl, err := l.Load(ctx, day)
		l.state.Update(func(st state.AppState) state.AppState {
			st.Loaded = err == nil
			st.Timeline = tl
			st.Err = err
			return st
		})
	}()

	return done
}

// Load builds the directory, queries the events of day and reduces them.
// It returns permission.ErrNotGranted unless the last published state has
// permission.
func (l *Loader) Load(ctx context.Context, day time.Time) (timeline.Timeline, error) {
	if !l.state.Snapshot().PermissionGranted {
		return timeline.Timeline{}, permission.ErrNotGranted
	}
	started := time.Now()

	dir, err := l.dir.Build(ctx)
	if err != nil {
		return timeline.Timeline{}, fmt.Errorf("failed to build app directory: %w", err)
	}

	start, end := DayRange(day)
	it, err := l.events.QueryEvents(ctx, start, end)
	if err != nil {
		return timeline.Timeline{}, fmt.Errorf("failed to query usage events: %w", err)
	}
	defer it.Close()

	tl := l.reducer.Reduce(it.All(), dir)
	if err := it.Err(); err != nil {
		return timeline.Timeline{}, fmt.Errorf("failed to read usage events: %w", err)
	}

	l.logger.Debug().
		Time("start", start).
		Time("end", end).
		Int("apps", len(dir)).
		Int("sessions", len(tl.Sessions)).
		Dur("total", tl.Total).
		Dur("elapsed", time.Since(started)).
		Msg("timeline loaded")

	return tl, nil
}

// DayRange returns local midnight of day and the last instant of that day.
func DayRange(day time.Time) (start, end time.Time) {
	y, m, d := day.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end = start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}
