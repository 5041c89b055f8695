package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/rewind/internal/output"
)

var (
	scanQuiet bool

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Index installed applications",
		Long: `Build the app directory from the desktop entries in the XDG
applications directories.

For each application rewind records its name, icon and a representative
color taken from the icon. Hidden entries (NoDisplay or Hidden) are left
out. The result replaces the previous scan, and timelines use it until the
next one.

Directories can be overridden with directory.paths in the config file.`,
		Example: `  # Index applications
  rewind scan

  # Without progress output
  rewind scan --quiet`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "suppress progress output")
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	e, err := loadEnv()
	if err != nil {
		return err
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sc := e.scanner()

	var bar *output.ProgressBar
	if !scanQuiet && stderrIsTTY() {
		bar = output.NewProgress(0, "Scanning applications")
		sc.Progress = bar.Update
	}

	apps, err := scanAndSave(commandContext(cmd), st, sc)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if !scanQuiet {
		fmt.Fprintf(out, "✓ Indexed %s apps\n", output.FormatCount(len(apps)))
		if len(apps) == 0 {
			fmt.Fprintln(out, "  No desktop entries found. Check directory.paths in your config.")
		} else {
			fmt.Fprintln(out, "  Run 'rewind apps' to list them.")
		}
	}
	return nil
}
