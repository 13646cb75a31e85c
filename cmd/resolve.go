package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newhook/issuerun/internal/render"
	"github.com/newhook/issuerun/internal/runner"
)

var errIssueNumbers = errors.New("Issue numbers must be integers, or use 'all'.")

var resolveCmd = &cobra.Command{
	Use:   "resolve all | resolve <issue-number>...",
	Short: "Scope and execute issues of the current repository",
	Long: `Scope and execute issues of the current repository.

'resolve all' runs every open issue. 'resolve 3 7' runs just those issues in
one batch call. The outcome is cached for this session and can be shown
again with 'issuerun last'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

// parseTarget turns the resolve arguments into a run target.
func parseTarget(args []string) (runner.Target, error) {
	if len(args) == 1 && strings.EqualFold(args[0], "all") {
		return runner.All(), nil
	}

	ids := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return runner.Target{}, errIssueNumbers
		}
		ids = append(ids, n)
	}
	if len(ids) == 1 {
		return runner.Single(ids[0]), nil
	}
	return runner.Subset(ids...), nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	target, err := parseTarget(args)
	if err != nil {
		return err
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

	out := cmd.OutOrStdout()
	if target.Kind == runner.KindAll {
		fmt.Fprintf(out, "Scope & Execute (batch) for ALL issues in '%s'\n", repo)
	} else {
		fmt.Fprintf(out, "Scope & Execute (batch) for %s: %v\n", repo, target.IDs)
	}
	fmt.Fprintf(out, "(POST %s/%s/issues/scope-and-execute-batch)\n", a.Client.BaseURL(), repo)

	stop := startSpinner(ctx, cmd.ErrOrStderr(), "Working on it (this can take a while)…", showSpinner(a))
	outcome, err := a.Orchestrator(repo).Submit(ctx, target)
	stop()
	if err != nil {
		return err
	}

	if !outcome.Failed() {
		fmt.Fprintf(out, "Finished scope & execute batch for repo '%s'\n\n", repo)
	}
	render.NewPrinter(out).Outcome(outcome.Summary, outcome.Result)
	if outcome.PersistErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: outcome was not cached: %v\n", outcome.PersistErr)
	}
	return outcome.Err
}
