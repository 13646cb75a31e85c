package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newhook/issuerun/internal/render"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues of the current repository",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	repo, err := a.CurrentRepo(ctx)
	if err != nil {
		return err
	}

	list, err := a.Client.ListIssues(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to list issues: %w", err)
	}

	render.NewPrinter(cmd.OutOrStdout()).IssueList(repo, list)
	return nil
}
