package app

import (
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	// RootCmd is the root command for rewind
	RootCmd = &cobra.Command{
		Use:   "rewind",
		Short: "See where your screen time went today",
		Long: `rewind replays the day as a timeline of the apps you used.

Window-manager or launcher hooks record focus changes with rewind-hook.
rewind turns those events into sessions, one per uninterrupted stretch of
an app in the foreground, and draws each as a bar proportional to its
length in the app's own color.

Running rewind without a subcommand shows today's timeline.

Quick Start:
  1. rewind scan                 # index installed applications
  2. rewind grant                # allow rewind to read usage history
  3. hook rewind-hook into your window manager (see 'rewind record --help')
  4. rewind                      # show today's timeline

Examples:
  # Today's timeline
  rewind

  # A past day as a table
  rewind today --date 2026-03-14 --table

  # Keep the database current in the background
  rewind watch --daemon`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runToday,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.rewind/rewind.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/rewind/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(todayCmd)
	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(appsCmd)
	RootCmd.AddCommand(grantCmd)
	RootCmd.AddCommand(revokeCmd)
	RootCmd.AddCommand(recordCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
