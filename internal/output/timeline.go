package output

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/fatih/color"

	"github.com/blackwell-systems/rewind/internal/timeline"
)

// TimelineOptions controls bar geometry and styling.
type TimelineOptions struct {
	// MinBarSeconds is the floor applied to a session before scaling.
	MinBarSeconds int
	// SecondsPerCell is how much time one terminal cell stands for.
	SecondsPerCell int
	// Width is the number of cells per line.
	Width int
	// Color paints bars with the app color instead of line fill.
	Color bool
}

func (o TimelineOptions) normalized() TimelineOptions {
	if o.MinBarSeconds < 0 {
		o.MinBarSeconds = 0
	}
	if o.SecondsPerCell <= 0 {
		o.SecondsPerCell = 60
	}
	if o.Width <= 0 {
		o.Width = 80
	}
	return o
}

// BarCells returns the width of a session bar:
// ceil(max(MinBarSeconds, whole seconds of d) / SecondsPerCell), at least 1.
func BarCells(d time.Duration, opts TimelineOptions) int {
	opts = opts.normalized()

	secs := int(d / time.Second)
	if secs < opts.MinBarSeconds {
		secs = opts.MinBarSeconds
	}
	cells := (secs + opts.SecondsPerCell - 1) / opts.SecondsPerCell
	if cells < 1 {
		cells = 1
	}
	return cells
}

// Glyph returns the single-character mark drawn at the start of an app's
// bars: the upper-cased first letter or digit of its label.
func Glyph(app *timeline.InstalledApp) string {
	for _, r := range app.Label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return string(unicode.ToUpper(r))
		}
	}
	for _, r := range app.Package {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return "?"
}

// RenderTimeline draws one bar per session in order, wrapping at
// opts.Width. An empty timeline renders as an empty string.
func RenderTimeline(tl timeline.Timeline, opts TimelineOptions) string {
	if len(tl.Sessions) == 0 {
		return ""
	}
	opts = opts.normalized()

	var (
		sb   strings.Builder
		used int
	)

	for _, s := range tl.Sessions {
		cells := BarCells(s.Duration(), opts)
		style := barStyle(s.Start.App, opts.Color)
		first := true

		for cells > 0 {
			if used == opts.Width {
				sb.WriteString("\n")
				used = 0
			}
			n := min(cells, opts.Width-used)
			sb.WriteString(style.paint(first, n))
			first = false
			used += n
			cells -= n
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

type bar struct {
	glyph string
	color *color.Color
}

func barStyle(app *timeline.InstalledApp, enabled bool) bar {
	b := bar{glyph: Glyph(app)}
	if enabled {
		r, g, bl := app.RGB()
		b.color = color.New(contrastAttribute(r, g, bl)).AddBgRGB(int(r), int(g), int(bl))
		b.color.EnableColor()
	}
	return b
}

// paint renders n cells. Only the first segment of a session carries the
// glyph; continuation segments after a wrap are plain fill.
func (b bar) paint(first bool, n int) string {
	if b.color != nil {
		body := strings.Repeat(" ", n)
		if first {
			body = b.glyph + strings.Repeat(" ", n-1)
		}
		return b.color.Sprint(body)
	}
	if first {
		return b.glyph + strings.Repeat("─", n-1)
	}
	return strings.Repeat("─", n)
}

// contrastAttribute picks black or white text for a background.
func contrastAttribute(r, g, b uint8) color.Attribute {
	luma := 299*int(r) + 587*int(g) + 114*int(b)
	if luma > 128_000 {
		return color.FgBlack
	}
	return color.FgHiWhite
}

// AppTotal is an app's summed screen time within a timeline.
type AppTotal struct {
	App      *timeline.InstalledApp
	Total    time.Duration
	Sessions int
}

// Totals sums session durations per app, longest first. Ties keep the order
// in which apps first appear.
func Totals(tl timeline.Timeline) []AppTotal {
	index := make(map[*timeline.InstalledApp]int)
	var totals []AppTotal

	for _, s := range tl.Sessions {
		i, ok := index[s.Start.App]
		if !ok {
			i = len(totals)
			index[s.Start.App] = i
			totals = append(totals, AppTotal{App: s.Start.App})
		}
		totals[i].Total += s.Duration()
		totals[i].Sessions++
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total > totals[j].Total
	})
	return totals
}

// RenderLegend lists each app in the timeline with its glyph and total.
func RenderLegend(tl timeline.Timeline, opts TimelineOptions) string {
	totals := Totals(tl)
	if len(totals) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, t := range totals {
		swatch := barStyle(t.App, opts.Color).paint(true, 2)
		sb.WriteString(swatch)
		sb.WriteString(" ")
		sb.WriteString(padRight(truncate(t.App.Label, 28), 28))
		sb.WriteString(" ")
		sb.WriteString(FormatDuration(t.Total))
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, n int) string {
	if w := len([]rune(s)); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
