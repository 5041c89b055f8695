package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/rewind/internal/loader"
	"github.com/blackwell-systems/rewind/internal/output"
	"github.com/blackwell-systems/rewind/internal/permission"
	"github.com/blackwell-systems/rewind/internal/state"
	"github.com/blackwell-systems/rewind/internal/timeline"
)

var (
	todayDate     string
	todayTable    bool
	todayWidth    int
	todayRescan   bool
	todayNoPrompt bool

	todayCmd = &cobra.Command{
		Use:   "today",
		Short: "Show the timeline of app usage for a day",
		Long: `Show the apps you used today as a timeline.

Each bar is one session: an uninterrupted stretch of one app in the
foreground, from the moment it came to the front until the next app did.
Bar width is proportional to the session length, with a floor so that
short switches stay visible. Apps that are not in the directory built by
'rewind scan' are left out.

If rewind has not been granted access to usage history yet, you are asked
first. Answering no leaves the timeline empty.`,
		Example: `  # Today's timeline
  rewind today

  # Yesterday, as a table of sessions
  rewind today --date yesterday --table

  # A specific day on a narrow terminal
  rewind today --date 2026-03-14 --width 60`,
		Args: cobra.NoArgs,
		RunE: runToday,
	}
)

func init() {
	todayCmd.Flags().StringVar(&todayDate, "date", "", "day to show: YYYY-MM-DD, today or yesterday (default: today)")
	todayCmd.Flags().BoolVar(&todayTable, "table", false, "list sessions as a table instead of bars")
	todayCmd.Flags().IntVar(&todayWidth, "width", 0, "timeline width in cells (default: timeline.width from config)")
	todayCmd.Flags().BoolVar(&todayRescan, "rescan", false, "rebuild the app directory before loading")
	todayCmd.Flags().BoolVar(&todayNoPrompt, "no-prompt", false, "never ask for usage access")
}

func runToday(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := commandContext(cmd)

	e, err := loadEnv()
	if err != nil {
		return err
	}

	day, err := parseDay(todayDate, time.Now())
	if err != nil {
		return err
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	e.ingest(st)

	gate := e.gate()
	appState := state.NewStore()
	ld := loader.New(gate, storedDirectory(st, e.scanner(), todayRescan), storeEvents(st), appState, e.logger)

	granted, err := ld.CheckPermission(ctx)
	if err != nil {
		return err
	}
	if !granted {
		flow := &permission.RequestFlow{
			In:          cmd.InOrStdin(),
			Out:         out,
			Interactive: !todayNoPrompt && isInteractive(),
			Granter:     gate,
		}
		if err := flow.Run(); err != nil {
			return err
		}
		// The flow does not report its outcome; ask the gate again.
		if granted, err = ld.CheckPermission(ctx); err != nil {
			return err
		}
		if !granted {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Usage access not granted. Nothing to show.")
			return nil
		}
	}

	done := ld.Start(ctx, day)
	if stderrIsTTY() {
		spinner := output.NewSpinner("Loading timeline")
		spinner.Start()
		<-done
		spinner.Stop()
	} else {
		<-done
	}

	snap := appState.Snapshot()
	if snap.Err != nil {
		return snap.Err
	}

	opts := output.TimelineOptions{
		MinBarSeconds:  e.cfg.Timeline.MinBarSeconds,
		SecondsPerCell: e.cfg.Timeline.SecondsPerCell,
		Width:          e.cfg.Timeline.Width,
		Color:          output.IsColorEnabled(),
	}
	if todayWidth > 0 {
		opts.Width = todayWidth
	}

	renderDay(out, day, snap.Timeline, opts, todayTable)
	return nil
}

// renderDay prints the header line followed by bars and legend, or the
// session table.
func renderDay(w io.Writer, day time.Time, tl timeline.Timeline, opts output.TimelineOptions, table bool) {
	heading := day.Format("Monday, 2 January 2006")

	if len(tl.Sessions) == 0 {
		fmt.Fprintf(w, "No app usage recorded on %s.\n", heading)
		return
	}

	total := time.Duration(tl.TotalSeconds()) * time.Second
	fmt.Fprintf(w, "%s · %s · %d sessions\n\n", heading, output.FormatDuration(total), len(tl.Sessions))

	if table {
		fmt.Fprint(w, output.RenderSessionTable(tl, opts.Color))
		return
	}

	fmt.Fprint(w, output.RenderTimeline(tl, opts))
	fmt.Fprintln(w)
	fmt.Fprint(w, output.RenderLegend(tl, opts))
}

// parseDay resolves the --date flag against now.
func parseDay(s string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return now, nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	}

	day, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD, today or yesterday", s)
	}
	return day, nil
}
