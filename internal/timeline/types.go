package timeline

import "time"

// Kind identifies the type of a raw usage event.
type Kind string

const (
	KindResumed Kind = "resumed"
	KindPaused  Kind = "paused"
	KindStopped Kind = "stopped"
	KindOther   Kind = "other"
)

// ParseKind maps a log or database token to a Kind. Unknown tokens map to
// KindOther so that they are stored but never reduced.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindResumed, KindPaused, KindStopped:
		return Kind(s)
	default:
		return KindOther
	}
}

// App flag bits.
const (
	FlagSystem   uint32 = 1 << 0 // hidden or NoDisplay entries
	FlagTerminal uint32 = 1 << 1 // entries that run inside a terminal
)

// DefaultColor is used when no representative color can be extracted.
const DefaultColor uint32 = 0xFF888888

// InstalledApp describes one application known to the directory.
type InstalledApp struct {
	Package string
	Label   string
	Icon    string // resolved icon path, empty if none was found
	Color   uint32 // ARGB
	Flags   uint32
	ScanID  string
}

// RGB splits the app color into its red, green and blue channels.
func (a *InstalledApp) RGB() (r, g, b uint8) {
	return uint8(a.Color >> 16), uint8(a.Color >> 8), uint8(a.Color)
}

// Directory maps package identifiers to installed apps.
type Directory map[string]*InstalledApp

// RawEvent is a usage event as recorded by the event source.
type RawEvent struct {
	Package   string
	Timestamp time.Time
	Kind      Kind
}

// AppEvent is a raw event resolved against the directory.
type AppEvent struct {
	App       *InstalledApp
	Timestamp time.Time
	Kind      Kind
}

// Session is one uninterrupted foreground period of Start.App.
type Session struct {
	Start AppEvent
	End   AppEvent
}

// Duration returns End.Timestamp - Start.Timestamp.
func (s Session) Duration() time.Duration {
	return s.End.Timestamp.Sub(s.Start.Timestamp)
}

// Timeline is the chronologically ordered list of sessions for a query window.
type Timeline struct {
	Sessions []Session
	Total    time.Duration
}

// TotalSeconds sums the whole seconds of every session. Because each session
// is truncated on its own, this can be smaller than Total.Seconds().
func (t Timeline) TotalSeconds() int64 {
	var n int64
	for _, s := range t.Sessions {
		n += int64(s.Duration() / time.Second)
	}
	return n
}
