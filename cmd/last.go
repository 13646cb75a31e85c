package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/newhook/issuerun/internal/app"
	"github.com/newhook/issuerun/internal/kvstore"
	"github.com/newhook/issuerun/internal/render"
	"github.com/newhook/issuerun/internal/resultcache"
	"github.com/newhook/issuerun/internal/statewatch"
)

var flagLastWatch bool

var lastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the cached outcome of the latest run in this session",
	Long: `Show the cached outcome of the latest run for the current repository.

Cached outcomes are cleared when a new session starts (see 'issuerun session
reset'). With --watch the outcome is printed again whenever another issuerun
process caches a new one.`,
	Args: cobra.NoArgs,
	RunE: runLast,
}

func init() {
	lastCmd.Flags().BoolVarP(&flagLastWatch, "watch", "w", false, "reprint when another process caches a new outcome (sqlite backend only)")
}

func runLast(cmd *cobra.Command, args []string) error {
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
	entry, err := printLast(ctx, out, a, repo, nil)
	if err != nil || !flagLastWatch {
		return err
	}
	return watchLast(ctx, out, a, repo, entry)
}

// printLast prints the cached entry for repo unless it equals prev.
func printLast(ctx context.Context, out io.Writer, a *app.App, repo string, prev *resultcache.Entry) (*resultcache.Entry, error) {
	entry, ok, err := a.Cache.Restore(ctx, repo)
	if err != nil {
		return prev, fmt.Errorf("failed to read cached outcome: %w", err)
	}
	if !ok {
		if prev == nil {
			fmt.Fprintf(out, "No cached results for '%s' in this session.\n", repo)
		}
		return prev, nil
	}
	if prev != nil && reflect.DeepEqual(prev, entry) {
		return prev, nil
	}
	render.NewPrinter(out).Outcome(entry.Summary, entry.Result)
	return entry, nil
}

func watchLast(ctx context.Context, out io.Writer, a *app.App, repo string, entry *resultcache.Entry) error {
	if flagEphemeral || a.Config.Storage.GetBackend() != kvstore.BackendSQLite {
		return errors.New("--watch needs the sqlite storage backend")
	}

	changed := make(chan struct{}, 1)
	w, err := statewatch.New(filepath.Join(a.StateDir, kvstore.DBFileName), func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch state: %w", err)
	}
	w.Start(ctx)
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			if entry, err = printLast(ctx, out, a, repo, entry); err != nil {
				return err
			}
		}
	}
}
