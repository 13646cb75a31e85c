// Package resultcache persists the last run outcome per repository so a
// freshly started view can show what happened last. It is written after
// every run and read only on cold start.
package resultcache

//go:generate moq -stub -out ../testutil/session_mock.go -pkg testutil . SessionBoundaryDetector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newhook/issuerun/internal/api"
	"github.com/newhook/issuerun/internal/kvstore"
	"github.com/newhook/issuerun/internal/logging"
)

// Persisted key layout.
const (
	KeySessionStarted    = "sessionStarted"
	KeyCurrentRepo       = "currentRepo"
	ResultsKeyPrefix     = "lastResults:"
	SummaryKeyPrefix     = "lastSummary:"
	sessionStartedMarker = "1"
)

// ResultsKey is the key holding the serialized BatchRunResult for repo.
func ResultsKey(repo string) string { return ResultsKeyPrefix + repo }

// SummaryKey is the key holding the summary line for repo.
func SummaryKey(repo string) string { return SummaryKeyPrefix + repo }

// SessionBoundaryDetector reports whether the current start is the first
// one of a session. Begin returns true exactly once until the session is reset.
type SessionBoundaryDetector interface {
	Begin(ctx context.Context) (bool, error)
}

// Entry is a cached run outcome.
type Entry struct {
	Summary string
	Result  *api.BatchRunResult
}

// Cache reads and writes run outcomes in a kvstore.Store.
type Cache struct {
	store    kvstore.Store
	detector SessionBoundaryDetector
}

// New creates a Cache over store. A nil detector means a StoreSessionDetector
// on the same store.
func New(store kvstore.Store, detector SessionBoundaryDetector) *Cache {
	if detector == nil {
		detector = NewStoreSessionDetector(store)
	}
	return &Cache{store: store, detector: detector}
}

// OnSessionStart purges every cached outcome, for all repositories, when
// this is the first start of a session. It reports whether a purge ran.
func (c *Cache) OnSessionStart(ctx context.Context) (bool, error) {
	first, err := c.detector.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to detect session start: %w", err)
	}
	if !first {
		return false, nil
	}

	var keys []string
	for _, prefix := range []string{ResultsKeyPrefix, SummaryKeyPrefix} {
		found, err := c.store.Keys(ctx, prefix)
		if err != nil {
			return false, fmt.Errorf("failed to list cached results: %w", err)
		}
		keys = append(keys, found...)
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		return false, fmt.Errorf("failed to purge cached results: %w", err)
	}

	logging.Info("new session, purged cached results", "keys", len(keys))
	return true, nil
}

// Persist overwrites the cached outcome for repo.
func (c *Cache) Persist(ctx context.Context, repo, summary string, result *api.BatchRunResult) error {
	if result == nil {
		result = &api.BatchRunResult{Results: []api.ExecutionResult{}}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := c.store.Set(ctx, ResultsKey(repo), string(data)); err != nil {
		return err
	}
	if err := c.store.Set(ctx, SummaryKey(repo), summary); err != nil {
		return err
	}
	logging.Debug("persisted run outcome", "repo", repo, "summary", summary)
	return nil
}

// Restore returns the cached outcome for repo. ok is false when neither a
// summary nor a result is cached.
func (c *Cache) Restore(ctx context.Context, repo string) (*Entry, bool, error) {
	summary, hasSummary, err := c.store.Get(ctx, SummaryKey(repo))
	if err != nil {
		return nil, false, err
	}
	raw, hasResult, err := c.store.Get(ctx, ResultsKey(repo))
	if err != nil {
		return nil, false, err
	}
	if !hasSummary && !hasResult {
		return nil, false, nil
	}

	entry := &Entry{Summary: summary}
	if hasResult {
		var result api.BatchRunResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			// Corrupt entries are treated as absent.
			logging.Warn("discarding unreadable cached result", "repo", repo, "error", err)
		} else {
			entry.Result = &result
		}
	}
	return entry, true, nil
}

// CurrentRepo returns the last selected repository, or "" when none is set.
func (c *Cache) CurrentRepo(ctx context.Context) (string, error) {
	repo, _, err := c.store.Get(ctx, KeyCurrentRepo)
	if err != nil {
		return "", err
	}
	return repo, nil
}

// SetCurrentRepo records repo as the current repository. A blank repo clears it.
func (c *Cache) SetCurrentRepo(ctx context.Context, repo string) error {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return c.store.Delete(ctx, KeyCurrentRepo)
	}
	return c.store.Set(ctx, KeyCurrentRepo, repo)
}
