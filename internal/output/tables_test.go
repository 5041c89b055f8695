package output

import (
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/rewind/internal/timeline"
)

func TestRenderSessionTable(t *testing.T) {
	tl := buildTimeline(
		span{firefox, 10 * time.Minute},
		span{code, 90 * time.Second},
	)

	out := RenderSessionTable(tl, false)

	for _, want := range []string{
		"Start", "Duration", "App",
		"09:00:00 09:10:00 10m 00s   Firefox",
		"09:10:00 09:11:30 1m 30s    Code",
		"2 sessions, 11m 30s total",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("session table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("plain table should not contain escapes")
	}
}

func TestRenderSessionTable_Empty(t *testing.T) {
	if got := RenderSessionTable(timeline.Timeline{}, false); got != "No sessions recorded.\n" {
		t.Errorf("got %q", got)
	}
}

func TestRenderAppTable(t *testing.T) {
	out := RenderAppTable([]*timeline.InstalledApp{firefox, code}, false)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[2], "firefox") || !strings.Contains(lines[2], "#e66000") {
		t.Errorf("firefox row = %q", lines[2])
	}
	if !strings.Contains(lines[3], "#007acc") || !strings.Contains(lines[3], "terminal, no icon") {
		t.Errorf("code row = %q", lines[3])
	}
}

func TestRenderAppTable_Empty(t *testing.T) {
	if got := RenderAppTable(nil, false); got != "No apps found.\n" {
		t.Errorf("got %q", got)
	}
}

func TestRenderAppTable_Color(t *testing.T) {
	out := RenderAppTable([]*timeline.InstalledApp{code}, true)
	if !strings.Contains(out, "\x1b[1m") || !strings.Contains(out, "\x1b[0m") {
		t.Error("color table should style the header")
	}
	if !strings.Contains(out, "\x1b[90m") {
		t.Error("color table should dim the notes column")
	}
}
