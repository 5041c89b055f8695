package output

import (
	"time"

	"github.com/blackwell-systems/rewind/internal/timeline"
)

var (
	firefox = &timeline.InstalledApp{Package: "firefox", Label: "Firefox", Color: 0xFFE66000, Icon: "/icons/firefox.png"}
	code    = &timeline.InstalledApp{Package: "code", Label: "Code", Color: 0xFF007ACC, Flags: timeline.FlagTerminal}
)

type span struct {
	app *timeline.InstalledApp
	d   time.Duration
}

// buildTimeline lays spans back to back starting at 09:00.
func buildTimeline(spans ...span) timeline.Timeline {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	var tl timeline.Timeline
	for _, s := range spans {
		start := timeline.AppEvent{App: s.app, Timestamp: at, Kind: timeline.KindResumed}
		at = at.Add(s.d)
		end := timeline.AppEvent{App: s.app, Timestamp: at, Kind: timeline.KindResumed}
		tl.Sessions = append(tl.Sessions, timeline.Session{Start: start, End: end})
		tl.Total += s.d
	}
	return tl
}

func plainOptions(width int) TimelineOptions {
	return TimelineOptions{MinBarSeconds: 100, SecondsPerCell: 60, Width: width}
}
