package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/blackwell-systems/rewind/internal/timeline"
)

// RenderSessionTable lists sessions in chronological order.
func RenderSessionTable(tl timeline.Timeline, colorEnabled bool) string {
	if len(tl.Sessions) == 0 {
		return "No sessions recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(styled(colorEnabled, fmt.Sprintf("%-8s %-8s %-9s %s", "Start", "End", "Duration", "App"), color.Bold))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	for _, s := range tl.Sessions {
		sb.WriteString(fmt.Sprintf("%-8s %-8s %-9s %s\n",
			s.Start.Timestamp.Format("15:04:05"),
			s.End.Timestamp.Format("15:04:05"),
			FormatDuration(s.Duration()),
			truncate(s.Start.App.Label, 32)))
	}

	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%d sessions, %s total\n", len(tl.Sessions), FormatDuration(tl.Total)))

	return sb.String()
}

// RenderAppTable lists installed apps. Apps are printed in the given order.
func RenderAppTable(apps []*timeline.InstalledApp, colorEnabled bool) string {
	if len(apps) == 0 {
		return "No apps found.\n"
	}

	var sb strings.Builder

	sb.WriteString(styled(colorEnabled, fmt.Sprintf("%-32s %-28s %-8s %s", "Package", "Label", "Color", "Notes"), color.Bold))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, app := range apps {
		r, g, b := app.RGB()
		sb.WriteString(fmt.Sprintf("%-32s %-28s %-8s %s\n",
			truncate(app.Package, 32),
			padRight(truncate(app.Label, 28), 28),
			fmt.Sprintf("#%02x%02x%02x", r, g, b),
			styled(colorEnabled, appNotes(app), color.FgHiBlack)))
	}

	return sb.String()
}

func appNotes(app *timeline.InstalledApp) string {
	var notes []string
	if app.Flags&timeline.FlagTerminal != 0 {
		notes = append(notes, "terminal")
	}
	if app.Flags&timeline.FlagSystem != 0 {
		notes = append(notes, "hidden")
	}
	if app.Icon == "" {
		notes = append(notes, "no icon")
	}
	return strings.Join(notes, ", ")
}
