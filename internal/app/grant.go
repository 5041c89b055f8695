package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	grantCmd = &cobra.Command{
		Use:   "grant",
		Short: "Allow rewind to read app usage history",
		Long: `Grant rewind access to the recorded usage history.

Until access is granted, 'rewind today' shows no timeline. The grant is
stored in ~/.rewind/usage-access and can be withdrawn with 'rewind revoke'.`,
		Args: cobra.NoArgs,
		RunE: runGrant,
	}

	revokeCmd = &cobra.Command{
		Use:   "revoke",
		Short: "Withdraw access to app usage history",
		Args:  cobra.NoArgs,
		RunE:  runRevoke,
	}
)

func runGrant(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if err := e.gate().Grant(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Usage access granted")
	return nil
}

func runRevoke(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if err := e.gate().Revoke(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Usage access revoked")
	return nil
}
