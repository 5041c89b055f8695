package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// setupEnv points every rewind location at a fresh temp home and restores
// the package globals afterwards.
func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	t.Setenv("XDG_DATA_DIRS", filepath.Join(home, "system"))
	t.Setenv("NO_COLOR", "1")
	t.Setenv("REWIND_LOGGING_LEVEL", "error")

	oldInteractive := isInteractive
	isInteractive = func() bool { return false }
	t.Cleanup(func() {
		isInteractive = oldInteractive
		resetFlags()
	})
	resetFlags()
	return home
}

// resetFlags restores every flag to its default, since cobra keeps parsed
// values in package variables between executions.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue) //nolint:errcheck
		f.Changed = false
	}
	RootCmd.PersistentFlags().VisitAll(reset)
	RootCmd.Flags().VisitAll(reset)
	for _, c := range RootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

// execute runs rewind with args and returns everything written to stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetIn(strings.NewReader(stdin))
	if args == nil {
		args = []string{}
	}
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetIn(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, "", args...)
	if err != nil {
		t.Fatalf("rewind %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func writeDesktopEntry(t *testing.T, home, id, name string) {
	t.Helper()
	dir := filepath.Join(home, ".local", "share", "applications")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "[Desktop Entry]\nType=Application\nName=" + name + "\nExec=" + id + "\n"
	if err := os.WriteFile(filepath.Join(dir, id+".desktop"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// at returns 2026-03-14 hh:mm in local time as RFC 3339.
func at(hh, mm int) string {
	return time.Date(2026, 3, 14, hh, mm, 0, 0, time.Local).Format(time.RFC3339)
}

func findCommand(name string) *cobra.Command {
	for _, c := range RootCmd.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
