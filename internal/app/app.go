// Package app wires configuration, state storage, the result cache and the
// backend client together for the commands and the TUI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/newhook/issuerun/internal/api"
	"github.com/newhook/issuerun/internal/config"
	"github.com/newhook/issuerun/internal/kvstore"
	"github.com/newhook/issuerun/internal/logging"
	"github.com/newhook/issuerun/internal/resultcache"
	"github.com/newhook/issuerun/internal/runner"
)

// ErrNoRepo is returned when a command needs a repository and none is selected.
var ErrNoRepo = errors.New("no repo selected. Use `issuerun use <repo>` first")

// Options control how Open builds an App.
type Options struct {
	// ConfigPath is an explicit config file; empty means the default location.
	ConfigPath string
	// Ephemeral keeps state in memory only, regardless of the configured backend.
	Ephemeral bool
}

// App holds everything a command needs.
type App struct {
	Config   *config.Config
	StateDir string
	Store    kvstore.Store
	Session  *resultcache.StoreSessionDetector
	Cache    *resultcache.Cache
	Client   *api.Client

	// Purged reports whether this start began a new session and cleared
	// cached results.
	Purged bool
}

// Open loads the config, initialises logging, opens the state store and
// runs the session-start purge.
func Open(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	stateDir := cfg.Storage.GetPath()
	if err := logging.Init(stateDir); err != nil {
		logging.Warn("failed to initialize logging", "error", err)
	}

	storeOpts := cfg.Storage.StoreOptions()
	if opts.Ephemeral {
		storeOpts.Backend = kvstore.BackendMemory
	}
	store, err := kvstore.Open(ctx, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s state store: %w", storeOpts.Backend, err)
	}

	session := resultcache.NewStoreSessionDetector(store)
	cache := resultcache.New(store, session)
	purged, err := cache.OnSessionStart(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &App{
		Config:   cfg,
		StateDir: stateDir,
		Store:    store,
		Session:  session,
		Cache:    cache,
		Client:   api.NewClient(cfg.Server.GetBaseURL()),
		Purged:   purged,
	}
	logging.Debug("opened state", "backend", storeOpts.Backend, "state_dir", stateDir, "base_url", a.Client.BaseURL(), "purged", purged)
	return a, nil
}

// CurrentRepo returns the selected repository or ErrNoRepo.
func (a *App) CurrentRepo(ctx context.Context) (string, error) {
	repo, err := a.Cache.CurrentRepo(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read current repo: %w", err)
	}
	if repo == "" {
		return "", ErrNoRepo
	}
	return repo, nil
}

// UseRepo checks that the backend can list repo's issues, then makes it
// the current repository. The listing is returned so callers can show it.
func (a *App) UseRepo(ctx context.Context, repo string) (*api.IssueList, error) {
	repo, err := api.ValidateRepo(repo)
	if err != nil {
		return nil, err
	}
	list, err := a.Client.ListIssues(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("repo '%s' not found or inaccessible (%w)", repo, err)
	}
	if err := a.Cache.SetCurrentRepo(ctx, repo); err != nil {
		return nil, fmt.Errorf("failed to save current repo: %w", err)
	}
	return list, nil
}

// Orchestrator returns a run orchestrator for repo that persists outcomes
// to the cache.
func (a *App) Orchestrator(repo string) *runner.Orchestrator {
	return runner.New(a.Client, a.Cache, repo)
}

// Close releases the store and the log file.
func (a *App) Close() error {
	err := a.Store.Close()
	logging.Close()
	return err
}
