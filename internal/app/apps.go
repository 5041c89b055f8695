package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/rewind/internal/output"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List the indexed applications",
	Long: `List the applications found by the last 'rewind scan', with their
package id, label and timeline color.`,
	Example: `  rewind apps`,
	Args:    cobra.NoArgs,
	RunE:    runApps,
}

func runApps(cmd *cobra.Command, args []string) error {
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

	last, err := st.GetLastScan()
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Fprintln(out, "No applications indexed yet. Run 'rewind scan' first.")
		return nil
	}

	apps, err := st.ListApps()
	if err != nil {
		return err
	}

	fmt.Fprint(out, output.RenderAppTable(apps, output.IsColorEnabled()))
	fmt.Fprintf(out, "\n%s apps · scanned %s\n", output.FormatCount(last.AppCount), output.FormatRelativeTime(last.At))
	return nil
}
