package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var useCmd = &cobra.Command{
	Use:   "use <repo>",
	Short: "Select the repository later commands work on",
	Long: `Select the repository later commands work on.

The repository is checked by listing its issues; it is only saved when the
service can reach it.`,
	Args: cobra.ExactArgs(1),
	RunE: runUse,
}

func runUse(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.UseRepo(ctx, args[0])
	if err != nil {
		return err
	}

	repo, err := a.CurrentRepo(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current repo set to: %s (%d issues)\n", repo, len(list.Issues))
	return nil
}
