package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/rewind/internal/output"
	"github.com/blackwell-systems/rewind/internal/watcher"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tracking status and statistics",
	Long: `Display the state of usage tracking.

Shows:
  • Watcher daemon status and PID
  • Database location
  • Last app scan and number of indexed apps
  • Total usage events and the most recent one
  • Whether usage access is granted
  • Usage log bytes not yet ingested`,
	Example: `  rewind status`,
	Args:    cobra.NoArgs,
	RunE:    runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	e, err := loadEnv()
	if err != nil {
		return err
	}

	pidFile := e.cfg.PIDPath()
	running, err := watcher.IsDaemonRunning(pidFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		pid, _ := watcher.ReadPID(pidFile)
		fmt.Fprintf(out, "%-14s running (PID %d)\n", "Watcher:", pid)
	} else {
		fmt.Fprintf(out, "%-14s stopped (run 'rewind watch --daemon')\n", "Watcher:")
	}

	fmt.Fprintf(out, "%-14s %s\n", "Database:", e.dbFile())

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	last, err := st.GetLastScan()
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Fprintf(out, "%-14s never (run 'rewind scan')\n", "Last scan:")
	} else {
		fmt.Fprintf(out, "%-14s %s (%s apps)\n", "Last scan:", output.FormatRelativeTime(last.At), output.FormatCount(last.AppCount))
	}

	count, err := st.GetEventCount()
	if err != nil {
		return err
	}
	lastEvent, err := st.GetLastEventTime()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%-14s %s (last %s)\n", "Events:", output.FormatCount(count), output.FormatRelativeTime(lastEvent))

	granted, err := e.gate().Granted(commandContext(cmd))
	if err != nil {
		return err
	}
	if granted {
		fmt.Fprintf(out, "%-14s granted\n", "Usage access:")
	} else {
		fmt.Fprintf(out, "%-14s not granted (run 'rewind grant')\n", "Usage access:")
	}

	pending, err := pendingLogBytes(e.usagePaths())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%-14s %s bytes pending\n", "Usage log:", output.FormatCount(int(pending)))

	return nil
}

// pendingLogBytes returns how much of the usage log is past the saved offset.
func pendingLogBytes(paths watcher.Paths) (int64, error) {
	info, err := os.Stat(paths.Log)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat usage log: %w", err)
	}

	offset, err := watcher.ReadOffset(paths.Offset)
	if err != nil {
		return 0, err
	}
	if offset > info.Size() {
		return info.Size(), nil
	}
	return info.Size() - offset, nil
}
