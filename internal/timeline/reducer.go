// Package timeline folds raw foreground-resume events into app sessions.
package timeline

import (
	"iter"

	"github.com/rs/zerolog"
)

// Reducer turns ordered usage events into a Timeline. It holds no state
// between calls; the logger only receives debug output.
type Reducer struct {
	logger zerolog.Logger
}

// NewReducer creates a Reducer that logs session boundaries at debug level.
func NewReducer(logger zerolog.Logger) *Reducer {
	return &Reducer{logger: logger.With().Str("component", "reducer").Logger()}
}

// Reduce folds events with a no-op logger. See (*Reducer).Reduce.
func Reduce(events iter.Seq[RawEvent], dir Directory) Timeline {
	return NewReducer(zerolog.Nop()).Reduce(events, dir)
}

// Reduce performs a single pass over events, which must be in chronological
// order. Only resumed events for packages that dir maps to an app take part. A
// session is closed whenever a different app is resumed; a repeated resume
// of the pending app is absorbed without touching its timestamp, and the
// pending app left at the end of the pass produces no session.
func (r *Reducer) Reduce(events iter.Seq[RawEvent], dir Directory) Timeline {
	var (
		tl      Timeline
		pending *AppEvent
	)

	for ev := range events {
		if ev.Kind != KindResumed {
			continue
		}
		app, ok := dir[ev.Package]
		if !ok || app == nil {
			continue
		}

		current := AppEvent{App: app, Timestamp: ev.Timestamp, Kind: ev.Kind}

		switch {
		case pending == nil:
			r.logger.Debug().Str("package", app.Package).Msg("adding initial event")
			pending = &current

		case pending.App.Package != app.Package:
			end := *pending
			end.Timestamp = current.Timestamp
			session := Session{Start: *pending, End: end}

			r.logger.Debug().
				Str("finished", pending.App.Package).
				Str("starting", app.Package).
				Dur("duration", session.Duration()).
				Msg("session finished")

			tl.Sessions = append(tl.Sessions, session)
			tl.Total += session.Duration()
			pending = &current
		}
	}

	return tl
}
