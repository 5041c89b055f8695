// Package output renders rewind data for the terminal.
//
// This package includes:
//   - The day timeline: one proportional bar per session
//   - Legend, session and app tables
//   - Progress bar and spinner for scans and loads
//   - Human-readable durations, counts and times
//
// Colors are emitted only when stdout is a terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// styled paints text with attrs when enabled. enabled overrides
// fatih/color's own stdout detection.
func styled(enabled bool, text string, attrs ...color.Attribute) string {
	if !enabled {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// FormatDuration renders d with its two most significant units, e.g.
// "2h 05m", "12m 30s" or "45s". Sub-second remainders are dropped.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatRelativeTime renders t relative to now, or "never" for the zero time.
func FormatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// truncate shortens s to maxLen runes, marking the cut with "…".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
