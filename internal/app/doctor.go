package app

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/rewind/internal/store"
	"github.com/blackwell-systems/rewind/internal/watcher"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues",
	Long: `Runs diagnostic checks on your rewind setup.

Checks:
  • Database exists and is accessible
  • Applications have been indexed
  • Usage access is granted
  • Usage events are being recorded
  • Watcher daemon is running
  • rewind-hook is on PATH

Critical issues make the command fail. Warnings are reported but the
command succeeds.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Running rewind diagnostics...")
	fmt.Fprintln(out)

	critical, warnings := 0, 0
	fail := func(msg, action string) {
		fmt.Fprintln(out, "✗", msg)
		if action != "" {
			fmt.Fprintln(out, "  Action:", action)
		}
		critical++
	}
	warn := func(msg, action string) {
		fmt.Fprintln(out, "⚠", msg)
		if action != "" {
			fmt.Fprintln(out, "  Action:", action)
		}
		warnings++
	}
	ok := func(format string, a ...any) {
		fmt.Fprintf(out, "✓ "+format+"\n", a...)
	}

	e, err := loadEnv()
	if err != nil {
		fail(fmt.Sprintf("Configuration error: %v", err), "Fix the config file or REWIND_* variables")
		return finishDoctor(cmd, critical, warnings)
	}

	dbFile := e.dbFile()
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		fail("Database not found at: "+dbFile, "Run 'rewind scan' to create it")
	} else {
		st, err := store.New(dbFile)
		if err != nil {
			fail(fmt.Sprintf("Cannot open database: %v", err), "")
		} else {
			defer st.Close()
			ok("Database found: %s", dbFile)
			checkDatabase(st, ok, fail, warn)
		}
	}

	granted, err := e.gate().Granted(commandContext(cmd))
	switch {
	case err != nil:
		fail(fmt.Sprintf("Cannot check usage access: %v", err), "")
	case !granted:
		fail("Usage access not granted", "Run 'rewind grant'")
	default:
		ok("Usage access granted")
	}

	running, err := watcher.IsDaemonRunning(e.cfg.PIDPath())
	switch {
	case err != nil:
		warn(fmt.Sprintf("Failed to check daemon status: %v", err), "")
	case !running:
		warn("Watcher daemon not running", "Run 'rewind watch --daemon' (optional, 'rewind today' ingests on its own)")
	default:
		pid, _ := watcher.ReadPID(e.cfg.PIDPath())
		ok("Watcher daemon running (PID %d)", pid)
	}

	if path, err := exec.LookPath("rewind-hook"); err != nil {
		warn("rewind-hook not found on PATH", "Install it next to rewind so window-manager hooks can call it")
	} else {
		ok("rewind-hook found: %s", path)
	}

	return finishDoctor(cmd, critical, warnings)
}

func checkDatabase(st *store.Store, ok func(string, ...any), fail, warn func(string, string)) {
	last, err := st.GetLastScan()
	switch {
	case err != nil:
		fail(fmt.Sprintf("Cannot read scan info: %v", err), "Run 'rewind scan'")
	case last == nil:
		fail("No applications indexed", "Run 'rewind scan'")
	case last.AppCount == 0:
		warn("Last scan found no applications", "Check directory.paths in your config")
	default:
		ok("%d applications indexed", last.AppCount)
	}

	count, err := st.GetEventCount()
	switch {
	case err != nil:
		warn(fmt.Sprintf("Cannot read events: %v", err), "")
	case count == 0:
		warn("No usage events recorded yet", "Hook rewind-hook into your window manager (see 'rewind record --help')")
	default:
		ok("%d usage events recorded", count)
	}
}

func finishDoctor(cmd *cobra.Command, critical, warnings int) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)

	switch {
	case critical == 0 && warnings == 0:
		fmt.Fprintln(out, "✓ All checks passed!")
		return nil
	case critical == 0:
		fmt.Fprintf(out, "Found %d warning(s). rewind works but is not fully set up.\n", warnings)
		return nil
	default:
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", critical, warnings)
		return fmt.Errorf("diagnostics failed")
	}
}
