package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/rewind/internal/timeline"
	"github.com/blackwell-systems/rewind/internal/watcher"
)

var (
	recordAt string

	recordCmd = &cobra.Command{
		Use:   "record <kind> <package>",
		Short: "Record a usage event",
		Long: `Append one usage event to ~/.rewind/usage.log and ingest it.

kind is one of resumed, paused, stopped or other. A "resumed" event marks
the moment an app came to the foreground; sessions are built from these.
package is the desktop-entry id of the app (see 'rewind apps'), or a name
mapped to one in $XDG_CONFIG_HOME/rewind/aliases.

Window managers should call the lightweight rewind-hook binary instead,
which takes the same arguments and only appends to the log.`,
		Example: `  # Firefox came to the foreground now
  rewind record resumed firefox

  # Backfill an event
  rewind record resumed org.gnome.Nautilus --at 2026-03-14T09:30:00+01:00

  # sway: call the hook on every focus change
  swaymsg -m -t subscribe '["window"]' | jq --unbuffered -r \
    'select(.change=="focus") | .container.app_id' | \
    xargs -L1 rewind-hook resumed`,
		Args: cobra.ExactArgs(2),
		RunE: runRecord,
	}
)

func init() {
	recordCmd.Flags().StringVar(&recordAt, "at", "", "event time in RFC 3339 (default: now)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	kind := timeline.Kind(args[0])
	if timeline.ParseKind(args[0]) != kind {
		return fmt.Errorf("unknown event kind %q: want resumed, paused, stopped or other", args[0])
	}
	pkg := args[1]
	if pkg == "" {
		return fmt.Errorf("package must not be empty")
	}

	at := time.Now()
	if recordAt != "" {
		t, err := time.Parse(time.RFC3339, recordAt)
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", recordAt, err)
		}
		at = t
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	ev := timeline.RawEvent{Package: pkg, Kind: kind, Timestamp: at}
	if err := appendUsageLine(e.cfg.UsageLogPath(), watcher.FormatUsageLine(ev)); err != nil {
		return err
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	e.ingest(st)

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %s %s at %s\n", kind, pkg, at.Local().Format("15:04:05"))
	return nil
}

// appendUsageLine writes line with a single append so concurrent hooks do
// not interleave.
func appendUsageLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open usage log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write usage log: %w", err)
	}
	return nil
}
