package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newhook/issuerun/internal/app"
	cosignal "github.com/newhook/issuerun/internal/signal"
	"github.com/newhook/issuerun/internal/tui"
)

var (
	// rootCtx holds the signal-cancellable context for the application
	rootCtx    context.Context
	rootCancel context.CancelFunc

	flagConfig    string
	flagEphemeral bool
	flagNoSpinner bool

	// flagNoMouse disables mouse support in the TUI
	flagNoMouse bool
)

var rootCmd = &cobra.Command{
	Use:   "issuerun",
	Short: "Scope and execute GitHub issues through a remote agent service",
	Long: `issuerun lists the issues of a repository and asks a remote agent service to
scope and execute them, one at a time or in batches.

Run without a subcommand to open the interactive issues view for the current
repository (see 'issuerun use').`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Create a cancellable context with signal handling
		rootCtx, rootCancel = cosignal.WithSignalCancel(context.Background())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rootCancel != nil {
			rootCancel()
		}
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
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

		deps := tui.Deps{
			Repo:         repo,
			Issues:       a.Client,
			Cache:        a.Cache,
			Orchestrator: a.Orchestrator(repo),
			ShowSpinner:  showSpinner(a),
			EnableMouse:  !flagNoMouse,
		}
		if err := tui.Run(ctx, deps); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns the root context that is cancelled on SIGINT/SIGTERM.
// This should be used by all subcommands instead of context.Background().
func GetContext() context.Context {
	if rootCtx == nil {
		return context.Background()
	}
	return rootCtx
}

func openApp(ctx context.Context) (*app.App, error) {
	return app.Open(ctx, app.Options{ConfigPath: flagConfig, Ephemeral: flagEphemeral})
}

func showSpinner(a *app.App) bool {
	return !flagNoSpinner && a.Config.UI.ShowSpinner()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: $XDG_CONFIG_HOME/issuerun/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false, "keep state in memory for this invocation only")
	rootCmd.PersistentFlags().BoolVar(&flagNoSpinner, "no-spinner", false, "do not animate while a run is in flight")
	rootCmd.Flags().BoolVar(&flagNoMouse, "no-mouse", false, "disable mouse support in the TUI")

	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(lastCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(configCmd)
}
