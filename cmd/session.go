package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the result cache session",
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "End the current session so the next start clears cached outcomes",
	Args:  cobra.NoArgs,
	RunE:  runSessionReset,
}

func init() {
	sessionCmd.AddCommand(sessionResetCmd)
}

func runSessionReset(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Session.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Session reset. Cached outcomes will be cleared on the next start.")
	return nil
}
