package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newhook/issuerun/internal/api"
	"github.com/newhook/issuerun/internal/app"
	"github.com/newhook/issuerun/internal/resultcache"
	"github.com/newhook/issuerun/internal/runner"
	"github.com/newhook/issuerun/internal/selection"
)

// =============================================================================
// Run Lifecycle Flow Tests
// Tests: use repo -> list -> select -> run -> display -> cache -> cold restore
// =============================================================================

func TestRunSelectedFlow(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()
	ctx := context.Background()

	h.CreateIssue(1, "Login broken")
	h.CreateIssue(2, "Typo in README")

	// Phase 1: pick the repository
	list, err := h.App.UseRepo(ctx, TestRepo)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, list.Numbers())

	repo, err := h.App.CurrentRepo(ctx)
	require.NoError(t, err)

	// Phase 2: select issue 2 only
	sel := selection.New(list.Numbers())
	require.NoError(t, sel.Toggle(2))

	// Phase 3: run the selection
	o := h.App.Orchestrator(repo)
	out, err := o.Submit(ctx, runner.Subset(sel.IDs()...))
	require.NoError(t, err)
	require.NoError(t, out.PersistErr)

	assert.Equal(t, "Batch done: 1 succeeded, 0 failed.", out.Summary)
	assert.Equal(t, []api.BatchRequest{{Issues: []int{2}}}, h.BatchRequests())
	assert.False(t, o.Running(2))

	summary, result := o.Display()
	assert.Equal(t, out.Summary, summary)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "https://github.com/example/test-repo/pull/102", result.Results[0].Executed.PullRequestURL)

	// Phase 4: a fresh view restores the cached outcome
	entry, ok, err := h.App.Cache.Restore(ctx, repo)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Batch done: 1 succeeded, 0 failed.", entry.Summary)

	fresh := h.App.Orchestrator(repo)
	require.True(t, fresh.RestoreDisplay(entry.Summary, entry.Result))
	restoredSummary, restored := fresh.Display()
	assert.Equal(t, summary, restoredSummary)
	assert.Equal(t, 2, restored.Results[0].IssueNumber)
}

func TestRunAllFlowSkipsClosed(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()
	ctx := context.Background()

	h.CreateIssue(1, "One")
	h.CreateIssue(2, "Two")
	h.CreateIssue(3, "Three")
	h.CloseIssue(2)
	h.UseTestRepo()

	out, err := h.App.Orchestrator(TestRepo).Submit(ctx, runner.All())
	require.NoError(t, err)
	assert.Equal(t, "All issues: 2 succeeded, 0 failed.", out.Summary)
	require.Len(t, out.Result.Results, 2)
	assert.Equal(t, 1, out.Result.Results[0].IssueNumber)
	assert.Equal(t, 3, out.Result.Results[1].IssueNumber)
}

func TestServerFailureFlow(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()
	ctx := context.Background()

	h.CreateIssue(3, "Three")
	h.CreateIssue(7, "Seven")
	h.FailBatch(http.StatusInternalServerError, "Devin API unavailable")

	out, err := h.App.Orchestrator(TestRepo).Submit(ctx, runner.Subset(3, 7))
	require.NoError(t, err)
	assert.Equal(t, "Batch failed: Devin API unavailable", out.Summary)
	require.Len(t, out.Result.Results, 2)
	for _, r := range out.Result.Results {
		assert.Equal(t, api.StatusFailed, r.Status)
		assert.Equal(t, "Devin API unavailable", r.Error)
	}

	entry, ok, err := h.App.Cache.Restore(ctx, TestRepo)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, out.Summary, entry.Summary)
	assert.Equal(t, 2, entry.Result.Failed)
}

func TestNetworkFailureFlow(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()
	ctx := context.Background()

	o := h.App.Orchestrator(TestRepo)
	h.Server.Close()

	out, err := o.Submit(ctx, runner.Single(5))
	require.NoError(t, err)
	var netErr *api.NetworkError
	require.ErrorAs(t, out.Err, &netErr)
	require.Len(t, out.Result.Results, 1)
	assert.Equal(t, 5, out.Result.Results[0].IssueNumber)
	assert.Equal(t, "Failed #5: "+netErr.Error(), out.Summary)
}

func TestSingleRunUnknownErrorFlow(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()

	h.SetBatch(func(req api.BatchRequest) (int, any) {
		return http.StatusOK, map[string]any{
			"results":   []map[string]any{{"issue_number": 5, "status": "failed"}},
			"succeeded": 0,
			"failed":    1,
		}
	})

	out, err := h.App.Orchestrator(TestRepo).Submit(context.Background(), runner.Single(5))
	require.NoError(t, err)
	assert.Equal(t, "Failed #5: Unknown error", out.Summary)
	assert.Equal(t, api.UnknownFailure, out.Result.Results[0].ErrorText())
}

func TestUseRepoRejectsUnknownRepo(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()
	ctx := context.Background()

	_, err := h.App.UseRepo(ctx, "nope")
	require.ErrorContains(t, err, "repo 'nope' not found or inaccessible (Repository not found)")

	_, err = h.App.CurrentRepo(ctx)
	require.ErrorIs(t, err, app.ErrNoRepo)

	_, err = h.App.UseRepo(ctx, "   ")
	var valErr *api.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestSessionResetPurgesOnNextStart(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()
	ctx := context.Background()

	h.CreateIssue(1, "One")
	_, err := h.App.Orchestrator(TestRepo).Submit(ctx, runner.Single(1))
	require.NoError(t, err)

	// Same session: a restart keeps the outcome.
	cache := resultcache.New(h.Store, nil)
	purged, err := cache.OnSessionStart(ctx)
	require.NoError(t, err)
	assert.False(t, purged)
	_, ok, err := cache.Restore(ctx, TestRepo)
	require.NoError(t, err)
	assert.True(t, ok)

	// External clear of the session flag: the next start purges.
	require.NoError(t, h.App.Session.Reset(ctx))
	purged, err = cache.OnSessionStart(ctx)
	require.NoError(t, err)
	assert.True(t, purged)
	_, ok, err = cache.Restore(ctx, TestRepo)
	require.NoError(t, err)
	assert.False(t, ok)
}
