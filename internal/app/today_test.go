package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func contains(s, sub string) bool { return strings.Contains(s, sub) }

// seedDay indexes Firefox and Code, grants access and records
// Firefox 09:00-09:20, Code 09:20-09:30, then Firefox again.
func seedDay(t *testing.T, home string) {
	t.Helper()
	writeDesktopEntry(t, home, "firefox", "Firefox")
	writeDesktopEntry(t, home, "code", "Code")

	mustExecute(t, "scan", "--quiet")
	mustExecute(t, "grant")
	mustExecute(t, "record", "resumed", "firefox", "--at", at(9, 0))
	mustExecute(t, "record", "resumed", "code", "--at", at(9, 20))
	mustExecute(t, "record", "resumed", "firefox", "--at", at(9, 30))
}

func TestTodayCommandFlags(t *testing.T) {
	for _, name := range []string{"date", "table", "width", "rescan", "no-prompt"} {
		if todayCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag", name)
		}
	}
	if todayCmd.Example == "" {
		t.Error("expected Example to be set")
	}
}

func TestToday_RendersTimeline(t *testing.T) {
	home := setupEnv(t)
	seedDay(t, home)

	out := mustExecute(t, "today", "--date", "2026-03-14")

	if !contains(out, "Saturday, 14 March 2026 · 30m 00s · 2 sessions") {
		t.Errorf("missing heading:\n%s", out)
	}
	bars := "F" + strings.Repeat("─", 19) + "C" + strings.Repeat("─", 9)
	if !contains(out, bars) {
		t.Errorf("expected bars %q in:\n%s", bars, out)
	}
	if !contains(out, "Firefox") || !contains(out, "20m 00s") || !contains(out, "10m 00s") {
		t.Errorf("legend missing totals:\n%s", out)
	}
}

func TestToday_RootDefaultsToToday(t *testing.T) {
	home := setupEnv(t)
	seedDay(t, home)

	out := mustExecute(t)
	today := time.Now().Format("Monday, 2 January 2006")
	if !contains(out, today) {
		t.Errorf("root command should show today (%s):\n%s", today, out)
	}
}

func TestToday_Table(t *testing.T) {
	home := setupEnv(t)
	seedDay(t, home)

	out := mustExecute(t, "today", "--date", "2026-03-14", "--table")
	for _, want := range []string{"Start", "09:00:00 09:20:00", "09:20:00 09:30:00", "2 sessions, 30m 00s total"} {
		if !contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestToday_WidthWraps(t *testing.T) {
	home := setupEnv(t)
	seedDay(t, home)

	out := mustExecute(t, "today", "--date", "2026-03-14", "--width", "12")
	if !contains(out, "F"+strings.Repeat("─", 11)+"\n") {
		t.Errorf("expected a 12-cell first line:\n%s", out)
	}
}

func TestToday_OtherDayIsEmpty(t *testing.T) {
	home := setupEnv(t)
	seedDay(t, home)

	out := mustExecute(t, "today", "--date", "2026-03-15")
	if !contains(out, "No app usage recorded on Sunday, 15 March 2026.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestToday_UnknownPackagesInvisible(t *testing.T) {
	home := setupEnv(t)
	seedDay(t, home)
	// An app that is not installed interrupts nothing.
	mustExecute(t, "record", "resumed", "ghost", "--at", at(9, 10))

	out := mustExecute(t, "today", "--date", "2026-03-14", "--table")
	if contains(out, "ghost") {
		t.Errorf("unknown package should not appear:\n%s", out)
	}
	if !contains(out, "2 sessions, 30m 00s total") {
		t.Errorf("unknown package should not split sessions:\n%s", out)
	}
}

func TestToday_NotGrantedNonInteractive(t *testing.T) {
	home := setupEnv(t)
	writeDesktopEntry(t, home, "firefox", "Firefox")
	mustExecute(t, "record", "resumed", "firefox", "--at", at(9, 0))

	out, err := execute(t, "", "today", "--date", "2026-03-14")
	if err != nil {
		t.Fatalf("absent permission is not an error: %v", err)
	}
	if !contains(out, "Run 'rewind grant'") || !contains(out, "Usage access not granted") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if contains(out, "Saturday") {
		t.Error("no timeline should be rendered without permission")
	}
}

func TestToday_InteractiveGrantThenLoads(t *testing.T) {
	home := setupEnv(t)
	seedDay(t, home)
	mustExecute(t, "revoke")
	isInteractive = func() bool { return true }

	out, err := execute(t, "y\n", "today", "--date", "2026-03-14")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if !contains(out, "Allow rewind to read app usage history? [y/N]") {
		t.Errorf("expected prompt:\n%s", out)
	}
	if !contains(out, "2 sessions") {
		t.Errorf("timeline should load after the grant:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(home, ".rewind", "usage-access")); err != nil {
		t.Errorf("grant marker missing: %v", err)
	}
}

func TestToday_InteractiveDecline(t *testing.T) {
	home := setupEnv(t)
	seedDay(t, home)
	mustExecute(t, "revoke")
	isInteractive = func() bool { return true }

	out, err := execute(t, "n\n", "today", "--date", "2026-03-14")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if contains(out, "sessions") {
		t.Errorf("declining must not load the timeline:\n%s", out)
	}
}

func TestToday_NoPromptSkipsQuestion(t *testing.T) {
	setupEnv(t)
	isInteractive = func() bool { return true }

	out, err := execute(t, "y\n", "today", "--no-prompt")
	if err != nil {
		t.Fatal(err)
	}
	if contains(out, "[y/N]") {
		t.Errorf("--no-prompt should not ask:\n%s", out)
	}
}

func TestToday_UsesStoredDirectoryUntilRescan(t *testing.T) {
	home := setupEnv(t)
	seedDay(t, home)

	// Uninstalling Code does not change the stored snapshot.
	os.Remove(filepath.Join(home, ".local", "share", "applications", "code.desktop"))

	out := mustExecute(t, "today", "--date", "2026-03-14", "--table")
	if !contains(out, "Code") {
		t.Errorf("stored directory should still know Code:\n%s", out)
	}

	out = mustExecute(t, "today", "--date", "2026-03-14", "--table", "--rescan")
	if contains(out, "Code") {
		t.Errorf("rescan should drop Code:\n%s", out)
	}
	// Without Code, Firefox is never interrupted and its open session is
	// not counted.
	if !contains(out, "No app usage recorded on Saturday, 14 March 2026.") {
		t.Errorf("unexpected output after rescan:\n%s", out)
	}
}

func TestToday_FirstRunScansAutomatically(t *testing.T) {
	home := setupEnv(t)
	writeDesktopEntry(t, home, "firefox", "Firefox")
	writeDesktopEntry(t, home, "code", "Code")
	mustExecute(t, "grant")
	mustExecute(t, "record", "resumed", "firefox", "--at", at(9, 0))
	mustExecute(t, "record", "resumed", "code", "--at", at(9, 5))

	out := mustExecute(t, "today", "--date", "2026-03-14")
	if !contains(out, "5m 00s · 1 sessions") {
		t.Errorf("expected a directory to be built on first run:\n%s", out)
	}
}

func TestToday_IngestsLargeBacklog(t *testing.T) {
	home := setupEnv(t)
	writeDesktopEntry(t, home, "firefox", "Firefox")
	writeDesktopEntry(t, home, "code", "Code")
	mustExecute(t, "scan", "--quiet")
	mustExecute(t, "grant")

	// Days of hook output with no watcher running, then today's switches.
	var b strings.Builder
	dayBefore := time.Date(2026, 3, 13, 8, 0, 0, 0, time.Local).UnixMilli()
	for i := 0; i < 12_000; i++ {
		fmt.Fprintf(&b, "%d,paused,firefox\n", dayBefore+int64(i))
	}
	for _, ev := range []struct {
		hh, mm int
		pkg    string
	}{{9, 0, "firefox"}, {9, 20, "code"}, {9, 30, "firefox"}} {
		ts := time.Date(2026, 3, 14, ev.hh, ev.mm, 0, 0, time.Local).UnixMilli()
		fmt.Fprintf(&b, "%d,resumed,%s\n", ts, ev.pkg)
	}
	logPath := filepath.Join(home, ".rewind", "usage.log")
	if err := os.WriteFile(logPath, []byte(b.String()), 0600); err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "today", "--date", "2026-03-14", "--table")
	if !contains(out, "2 sessions, 30m 00s total") {
		t.Errorf("events behind the backlog should be ingested:\n%s", out)
	}
}

func TestToday_InvalidDate(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "", "today", "--date", "14/03/2026")
	if err == nil || !contains(err.Error(), "invalid --date") {
		t.Errorf("expected invalid date error, got %v", err)
	}
}

func TestParseDay(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 45, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "2026-03-14", false},
		{"today", "2026-03-14", false},
		{"Yesterday", "2026-03-13", false},
		{"2025-12-31", "2025-12-31", false},
		{"2025-02-30", "", true},
		{"last week", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDay(tt.in, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got.Format("2006-01-02") != tt.want {
				t.Errorf("parseDay(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}
