// Package testutil provides testing utilities for issuerun.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newhook/issuerun/internal/api"
	"github.com/newhook/issuerun/internal/app"
	"github.com/newhook/issuerun/internal/config"
	"github.com/newhook/issuerun/internal/kvstore"
	"github.com/newhook/issuerun/internal/resultcache"
)

// TestRepo is the repository the harness backend serves.
const TestRepo = "test-repo"

// BatchFunc answers a scope-and-execute-batch request. Returning a status
// other than 200 sends detail as the error body.
type BatchFunc func(req api.BatchRequest) (status int, body any)

// TestHarness provides a fake issue backend over HTTP plus an App wired to
// it with an in-memory store, for exercising commands and views end to end.
type TestHarness struct {
	T      *testing.T
	Server *httptest.Server
	App    *app.App
	Store  kvstore.Store

	mu       sync.Mutex
	issues   map[int]*api.IssueDetail
	batch    BatchFunc
	requests []api.BatchRequest
}

// NewTestHarness creates a harness whose backend serves TestRepo with no
// issues and answers every run with one success per targeted issue.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	h := &TestHarness{
		T:      t,
		issues: make(map[int]*api.IssueDetail),
	}
	h.batch = h.succeedAll
	h.Server = httptest.NewServer(http.HandlerFunc(h.serve))

	store := kvstore.NewMemory()
	session := resultcache.NewStoreSessionDetector(store)
	cache := resultcache.New(store, session)
	_, err := cache.OnSessionStart(context.Background())
	require.NoError(t, err, "failed to start session")

	h.Store = store
	h.App = &app.App{
		Config:  &config.Config{Server: config.ServerConfig{BaseURL: h.Server.URL}},
		Store:   store,
		Session: session,
		Cache:   cache,
		Client:  api.NewClient(h.Server.URL),
	}
	return h
}

// Cleanup shuts the backend down. Should be called with defer after NewTestHarness.
func (h *TestHarness) Cleanup() {
	h.Server.Close()
	if err := h.Store.Close(); err != nil {
		h.T.Logf("warning: failed to close store: %v", err)
	}
}

// =============================================================================
// Fixtures
// =============================================================================

// CreateIssue adds an open issue to the backend.
func (h *TestHarness) CreateIssue(number int, title string) *api.IssueDetail {
	h.mu.Lock()
	defer h.mu.Unlock()

	issue := &api.IssueDetail{
		Number: number,
		Title:  title,
		State:  "open",
		URL:    "https://github.com/example/" + TestRepo + "/issues/" + strconv.Itoa(number),
		Body:   "Body of " + title,
	}
	h.issues[number] = issue
	return issue
}

// CloseIssue marks an issue closed so that all-issue runs skip it.
func (h *TestHarness) CloseIssue(number int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if issue, ok := h.issues[number]; ok {
		issue.State = "closed"
	}
}

// SetBatch replaces how the backend answers runs.
func (h *TestHarness) SetBatch(fn BatchFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batch = fn
}

// FailBatch makes every run answer with status and a {"detail": ...} body.
func (h *TestHarness) FailBatch(status int, detail string) {
	h.SetBatch(func(api.BatchRequest) (int, any) {
		return status, map[string]string{"detail": detail}
	})
}

// BatchRequests returns the run requests received so far.
func (h *TestHarness) BatchRequests() []api.BatchRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]api.BatchRequest, len(h.requests))
	copy(out, h.requests)
	return out
}

// UseTestRepo makes TestRepo the current repository.
func (h *TestHarness) UseTestRepo() {
	h.T.Helper()
	require.NoError(h.T, h.App.Cache.SetCurrentRepo(context.Background(), TestRepo))
}

// openIssueNumbers returns open issue numbers in ascending order.
// Callers must hold h.mu.
func (h *TestHarness) openIssueNumbers() []int {
	var ids []int
	for n, issue := range h.issues {
		if issue.State == "open" {
			ids = append(ids, n)
		}
	}
	sort.Ints(ids)
	return ids
}

// succeedAll is the default BatchFunc. Callers must hold h.mu.
func (h *TestHarness) succeedAll(req api.BatchRequest) (int, any) {
	ids := req.Issues
	if req.All {
		ids = h.openIssueNumbers()
	}
	results := make([]api.ExecutionResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, api.ExecutionResult{
			IssueNumber: id,
			Status:      api.StatusSuccess,
			Scoped:      &api.ScopedOutput{Summary: "Scoped #" + strconv.Itoa(id), ConfidenceScore: api.Confidence("0.9")},
			Executed: &api.ExecutedOutput{
				BranchName:     "fix/" + strconv.Itoa(id),
				PullRequestURL: "https://github.com/example/" + TestRepo + "/pull/" + strconv.Itoa(100+id),
			},
		})
	}
	total := len(ids)
	return http.StatusOK, api.BatchRunResult{
		Repo:          TestRepo,
		TotalSelected: &total,
		Results:       results,
		Succeeded:     len(results),
	}
}

// =============================================================================
// Backend
// =============================================================================

func (h *TestHarness) serve(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != TestRepo || parts[1] != "issues" {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Repository not found"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		ids := h.openIssueNumbers()
		if len(h.issues) == 0 {
			writeJSON(w, http.StatusOK, map[string]string{"message": "No open issues"})
			return
		}
		list := api.IssueList{Issues: []api.IssueSummary{}}
		for _, id := range ids {
			issue := h.issues[id]
			list.Issues = append(list.Issues, api.IssueSummary{Number: issue.Number, Title: issue.Title, State: issue.State, URL: issue.URL})
		}
		writeJSON(w, http.StatusOK, list)

	case len(parts) == 3 && parts[2] == "scope-and-execute-batch" && r.Method == http.MethodPost:
		var req api.BatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
			return
		}
		h.requests = append(h.requests, req)
		status, body := h.batch(req)
		writeJSON(w, status, body)

	case len(parts) == 3 && r.Method == http.MethodGet:
		n, err := strconv.Atoi(parts[2])
		issue, ok := h.issues[n]
		if err != nil || !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Issue not found"})
			return
		}
		writeJSON(w, http.StatusOK, issue)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
