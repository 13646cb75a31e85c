package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newhook/issuerun/internal/api"
)

func TestIssueListSortedByNumber(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).IssueList("octo", &api.IssueList{Issues: []api.IssueSummary{
		{Number: 12, Title: "Later", State: "open", URL: "https://example.com/12"},
		{Number: 3, Title: "Earlier", State: "closed", URL: "https://example.com/3"},
	}})

	out := buf.String()
	assert.Contains(t, out, "Issues for repo 'octo':")
	assert.Contains(t, out, "#3     [closed] Earlier")
	assert.Contains(t, out, "#12    [open  ] Later")
	assert.Less(t, strings.Index(out, "#3 "), strings.Index(out, "#12 "))
	assert.Contains(t, out, "     URL: https://example.com/3")
}

func TestIssueListEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).IssueList("octo", &api.IssueList{Message: "Repository has no open issues."})
	assert.Equal(t, "Repository has no open issues.\n", buf.String())

	buf.Reset()
	NewPrinter(&buf).IssueList("octo", &api.IssueList{})
	assert.Equal(t, "No issues found.\n", buf.String())
}

func TestIssueDetailNoBody(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).IssueDetail(&api.IssueDetail{Number: 4, Title: "Crash", State: "open", URL: "u"})

	out := buf.String()
	assert.Contains(t, out, "#4 [open] Crash")
	assert.Contains(t, out, "(no body)")
	assert.Contains(t, out, "URL: u")
}

func TestResultSuccess(t *testing.T) {
	files := make([]string, 10)
	for i := range files {
		files[i] = fmt.Sprintf("file%d.go", i)
	}
	commits := make([]api.Commit, 6)
	for i := range commits {
		commits[i] = api.Commit{Message: fmt.Sprintf("commit %d", i)}
	}
	commits[0] = api.Commit{Message: strings.Repeat("x", 250)}

	var buf bytes.Buffer
	NewPrinter(&buf).Result(api.ExecutionResult{
		IssueNumber: 7,
		Status:      api.StatusSuccess,
		Scoped: &api.ScopedOutput{
			Summary:         strings.Repeat("word ", 40),
			ConfidenceScore: api.Confidence("0.85"),
			ActionPlan:      []string{"a", "b", "c"},
		},
		Executed: &api.ExecutedOutput{
			BranchName:     "fix/7",
			PullRequestURL: "https://example.com/pr/1",
			Files:          files,
			Commits:        commits,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Issue #7: SUCCESS")
	assert.Contains(t, out, "  • Confidence: 0.85")
	assert.Contains(t, out, "  • Plan steps: 3")
	assert.Contains(t, out, "  • Pull Request: https://example.com/pr/1")
	assert.Contains(t, out, "  • Branch: fix/7")
	assert.Contains(t, out, "     - file7.go")
	assert.NotContains(t, out, "file8.go")
	assert.Contains(t, out, "     - …and 2 more")
	assert.Contains(t, out, "     - commit 4")
	assert.NotContains(t, out, "commit 5")
	assert.Contains(t, out, "     - "+strings.Repeat("x", 200)+"\n")
	assert.NotContains(t, out, strings.Repeat("x", 201))

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "     word") {
			assert.LessOrEqual(t, len(strings.TrimPrefix(line, "     ")), summaryWidth)
		}
	}
}

func TestResultFailedAndSkipped(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Result(api.ExecutionResult{IssueNumber: 5, Status: api.StatusFailed})
	p.Result(api.ExecutionResult{IssueNumber: 6, Status: api.StatusSkipped, Reason: "pull request"})

	out := buf.String()
	assert.Contains(t, out, "Issue #5: FAILED")
	assert.Contains(t, out, "  • Error: Unknown failure")
	assert.Contains(t, out, "Issue #6: SKIPPED")
	assert.Contains(t, out, "  • Skipped: pull request")
}

func TestOutcomeHeader(t *testing.T) {
	total := 4
	var buf bytes.Buffer
	NewPrinter(&buf).Outcome("All issues: 3 succeeded, 1 failed.", &api.BatchRunResult{
		TotalSelected: &total,
		Results:       []api.ExecutionResult{{IssueNumber: 1, Status: api.StatusSuccess}},
		Succeeded:     3,
		Failed:        1,
	})

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "All issues: 3 succeeded, 1 failed.\n"))
	assert.Contains(t, out, "Selected issues: 4   Succeeded: 3   Failed: 1")
	assert.Contains(t, out, "Issue #1: SUCCESS")
}

func TestOutcomeWithoutTotalSelected(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Outcome("Batch failed: boom", &api.BatchRunResult{
		Results: []api.ExecutionResult{
			{IssueNumber: 3, Status: api.StatusFailed, Error: "boom"},
			{IssueNumber: 7, Status: api.StatusFailed, Error: "boom"},
		},
		Failed: 2,
	})
	assert.Contains(t, buf.String(), "Selected issues: 2   Succeeded: 0   Failed: 2")
}

func TestWrapLines(t *testing.T) {
	lines := wrapLines("alpha  beta\n\tgamma", 11)
	assert.Equal(t, []string{"alpha beta", "gamma"}, lines)
	assert.Nil(t, wrapLines("   ", 10))
}
