package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/newhook/issuerun/internal/render"
)

var errIssueNumber = errors.New("Issue number must be an integer.")

var showCmd = &cobra.Command{
	Use:   "show <issue-number>",
	Short: "Show one issue of the current repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return errIssueNumber
	}

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

	issue, err := a.Client.GetIssue(ctx, repo, number)
	if err != nil {
		return fmt.Errorf("failed to load issue #%d: %w", number, err)
	}

	render.NewPrinter(cmd.OutOrStdout()).IssueDetail(issue)
	return nil
}
